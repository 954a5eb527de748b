package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"autodealer/internal/authz"
	"autodealer/internal/models"
	"autodealer/internal/repositories"
	"autodealer/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubLeads records the last call and answers with canned values.
type stubLeads struct {
	lead   *models.Lead
	leads  []models.Lead
	task   *models.LeadTask
	stats  *models.LeadStats
	count  int
	acts   []models.Activity
	err    error
	filter models.LeadFilter
	patch  services.LeadPatch
	input  services.CreateLeadInput
	actor  authz.Actor

	chatSession string
	chatInput   services.ChatLeadInput
	chatCreated bool
}

func (s *stubLeads) CreateLead(_ context.Context, in services.CreateLeadInput, actor authz.Actor) (*models.Lead, error) {
	s.input, s.actor = in, actor
	return s.lead, s.err
}

func (s *stubLeads) CreateLeadFromChat(_ context.Context, chatSessionID string, in services.ChatLeadInput, actor authz.Actor) (*models.Lead, bool, error) {
	s.chatSession, s.chatInput, s.actor = chatSessionID, in, actor
	return s.lead, s.chatCreated, s.err
}

func (s *stubLeads) UpdateLead(_ context.Context, _ int64, patch services.LeadPatch, actor authz.Actor) (*models.Lead, error) {
	s.patch, s.actor = patch, actor
	return s.lead, s.err
}

func (s *stubLeads) GetLead(_ context.Context, _ int64, actor authz.Actor) (*models.Lead, error) {
	s.actor = actor
	return s.lead, s.err
}

func (s *stubLeads) ListLeads(_ context.Context, f models.LeadFilter, actor authz.Actor) ([]models.Lead, error) {
	s.filter, s.actor = f, actor
	return s.leads, s.err
}

func (s *stubLeads) DeleteLead(context.Context, int64, authz.Actor) error { return s.err }

func (s *stubLeads) ConvertToClient(context.Context, int64, authz.Actor) (*models.Lead, error) {
	return s.lead, s.err
}

func (s *stubLeads) RecalculateScore(context.Context, int64, authz.Actor) (*models.Lead, error) {
	return s.lead, s.err
}

func (s *stubLeads) GetStats(context.Context, authz.Actor) (*models.LeadStats, error) {
	return s.stats, s.err
}

func (s *stubLeads) GetUnprocessedLeadCount(_ context.Context, actor authz.Actor) (int, error) {
	s.actor = actor
	return s.count, s.err
}

func (s *stubLeads) ListActivities(context.Context, int64, int, authz.Actor) ([]models.Activity, error) {
	return s.acts, s.err
}

func (s *stubLeads) CompleteTask(context.Context, int64, authz.Actor) (*models.LeadTask, error) {
	return s.task, s.err
}

type stubTasks struct {
	task  *models.LeadTask
	tasks []models.LeadTask
	err   error
	in    services.CreateTaskInput
}

func (s *stubTasks) Create(_ context.Context, _ int64, in services.CreateTaskInput, _ authz.Actor) (*models.LeadTask, error) {
	s.in = in
	return s.task, s.err
}

func (s *stubTasks) ListByLead(context.Context, int64, authz.Actor) ([]models.LeadTask, error) {
	return s.tasks, s.err
}

func (s *stubTasks) Update(context.Context, int64, services.UpdateTaskInput, authz.Actor) (*models.LeadTask, error) {
	return s.task, s.err
}

func (s *stubTasks) Delete(context.Context, int64, authz.Actor) error { return s.err }

type stubAuth struct {
	admin *models.Admin
	err   error
	in    services.NewAdminInput
}

func (s *stubAuth) Login(context.Context, string, string) (string, *models.Admin, error) {
	return "token", s.admin, s.err
}

func (s *stubAuth) CreateAdmin(_ context.Context, in services.NewAdminInput) (*models.Admin, error) {
	s.in = in
	return s.admin, s.err
}

// fakeBot collects what the webhook would send to Telegram.
type fakeBot struct {
	messages  []string
	keyboards []string
}

func (b *fakeBot) SendMessage(_ int64, text string) error {
	b.messages = append(b.messages, text)
	return nil
}

func (b *fakeBot) SendReplyKeyboard(_ int64, text string, _ [][]string) error {
	b.keyboards = append(b.keyboards, text)
	return nil
}

type fakeLinks struct {
	codes   map[string]int64
	created []string
}

func (l *fakeLinks) Create(_ context.Context, adminID int64, code string, ttl time.Duration) (*repositories.TelegramLink, error) {
	l.codes[code] = adminID
	l.created = append(l.created, code)
	return &repositories.TelegramLink{AdminID: adminID, Code: code, ExpiresAt: time.Now().Add(ttl)}, nil
}

func (l *fakeLinks) UseByCode(_ context.Context, code string) (*repositories.TelegramLink, error) {
	id, ok := l.codes[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	delete(l.codes, code)
	return &repositories.TelegramLink{AdminID: id, Code: code, Used: true}, nil
}

type fakeTgAdmins struct {
	admins map[int64]*models.Admin
}

func (f *fakeTgAdmins) GetByChatID(_ context.Context, chatID int64) (*models.Admin, error) {
	for _, a := range f.admins {
		if a.TelegramChatID == chatID && chatID != 0 {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTgAdmins) UpdateTelegramLink(_ context.Context, adminID, chatID int64, enable bool) error {
	a, ok := f.admins[adminID]
	if !ok {
		return repositories.ErrNotFound
	}
	a.TelegramChatID, a.NotifyTelegram = chatID, enable
	return nil
}

func (f *fakeTgAdmins) GetTelegramSettings(_ context.Context, adminID int64) (int64, bool, error) {
	a, ok := f.admins[adminID]
	if !ok {
		return 0, false, repositories.ErrNotFound
	}
	return a.TelegramChatID, a.NotifyTelegram, nil
}

type fakeTaskFinder struct {
	tasks  []models.LeadTask
	filter models.TaskFilter
}

func (f *fakeTaskFinder) FindAll(_ context.Context, filter models.TaskFilter) ([]models.LeadTask, error) {
	f.filter = filter
	return f.tasks, nil
}

// withActor mimics the auth middleware.
func withActor(a authz.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ActorKey, a)
		c.Next()
	}
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
