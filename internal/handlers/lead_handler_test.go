package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodealer/internal/authz"
	"autodealer/internal/models"
	"autodealer/internal/pdf"
	"autodealer/internal/services"
)

var manager = authz.FromAdmin(&models.Admin{ID: 5, Email: "m@dealer.kz", ProjectID: models.ProjectOffice1})

func leadRouter(leads *stubLeads, tasks *stubTasks) *gin.Engine {
	h := NewLeadHandler(leads, tasks, nil, pdf.NewCardGenerator(""))
	th := NewLeadTaskHandler(tasks, leads)
	r := gin.New()
	g := r.Group("/leads", withActor(manager))
	g.POST("/", h.Create)
	g.POST("/from-chat/:chatSessionId", h.CreateFromChat)
	g.GET("/", h.List)
	g.GET("/stats/unprocessed-count", h.UnprocessedCount)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/calculate-score", h.CalculateScore)
	g.GET("/:id/activities", h.Activities)
	g.GET("/:id/card.pdf", h.CardPDF)
	g.POST("/:id/tasks", th.Create)
	g.GET("/:id/tasks", th.List)
	g.POST("/tasks/:taskId/complete", th.Complete)
	return r
}

func TestLeadHandler_Create(t *testing.T) {
	leads := &stubLeads{lead: &models.Lead{ID: 9, Name: "John", Score: 65}}
	r := leadRouter(leads, &stubTasks{})

	w := do(t, r, http.MethodPost, "/leads/", map[string]any{
		"name": "John", "phone": "+77010000000", "source": "phone", "has_telegram_contact": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(65), decode(t, w)["score"])
	assert.Equal(t, "John", leads.input.Name)
	assert.True(t, leads.input.HasTelegramContact)
	assert.Equal(t, int64(5), leads.actor.AdminID)
}

func TestLeadHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrLeadNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", services.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: name is required", services.ErrValidation), http.StatusBadRequest},
		{services.ErrConflict, http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			r := leadRouter(&stubLeads{err: tc.err}, &stubTasks{})
			w := do(t, r, http.MethodGet, "/leads/3", nil)
			assert.Equal(t, tc.code, w.Code)
			if tc.code == http.StatusInternalServerError {
				assert.Equal(t, "internal error", decode(t, w)["error"])
			}
		})
	}
}

func TestLeadHandler_BadID(t *testing.T) {
	r := leadRouter(&stubLeads{}, &stubTasks{})
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/leads/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodDelete, "/leads/0", nil).Code)
}

func TestLeadHandler_ListFilters(t *testing.T) {
	leads := &stubLeads{}
	r := leadRouter(leads, &stubTasks{})

	w := do(t, r, http.MethodGet, "/leads/?status=new&source=chat&assigned_admin_id=4&search=kia&page=3&size=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	f := leads.filter
	require.NotNil(t, f.Status)
	assert.Equal(t, models.LeadStatusNew, *f.Status)
	require.NotNil(t, f.Source)
	assert.Equal(t, models.SourceChat, *f.Source)
	require.NotNil(t, f.AssignedAdminID)
	assert.Equal(t, int64(4), *f.AssignedAdminID)
	assert.Equal(t, "kia", f.Search)
	assert.Equal(t, 20, f.Limit)
	assert.Equal(t, 40, f.Offset)

	w = do(t, r, http.MethodGet, "/leads/?assigned_admin_id=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_UpdatePassesPatch(t *testing.T) {
	leads := &stubLeads{lead: &models.Lead{ID: 3}}
	r := leadRouter(leads, &stubTasks{})

	w := do(t, r, http.MethodPut, "/leads/3", map[string]any{"priority": "urgent", "assigned_admin_id": 0})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, leads.patch.Priority)
	assert.Equal(t, models.PriorityUrgent, *leads.patch.Priority)
	require.NotNil(t, leads.patch.AssignedAdminID)
	assert.Equal(t, int64(0), *leads.patch.AssignedAdminID)
	assert.Nil(t, leads.patch.Name)
	assert.Nil(t, leads.patch.PipelineStage)
}

func TestLeadHandler_UnprocessedCount(t *testing.T) {
	leads := &stubLeads{count: 4}
	r := leadRouter(leads, &stubTasks{})

	w := do(t, r, http.MethodGet, "/leads/stats/unprocessed-count", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), decode(t, w)["count"])
	assert.Equal(t, models.ProjectOffice1, leads.actor.ProjectID)
}

func TestLeadHandler_CalculateScoreAndDelete(t *testing.T) {
	leads := &stubLeads{lead: &models.Lead{ID: 3, Score: 80}}
	r := leadRouter(leads, &stubTasks{})

	w := do(t, r, http.MethodPost, "/leads/3/calculate-score", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(80), decode(t, w)["score"])

	assert.Equal(t, http.StatusNoContent, do(t, r, http.MethodDelete, "/leads/3", nil).Code)
}

func TestLeadHandler_CardPDF(t *testing.T) {
	leads := &stubLeads{lead: &models.Lead{ID: 3, Name: "John", Source: models.SourcePhone}}
	tasks := &stubTasks{tasks: []models.LeadTask{{ID: 1, Title: "Call"}}}
	r := leadRouter(leads, tasks)

	w := do(t, r, http.MethodGet, "/leads/3/card.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "lead_3.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestLeadTaskHandler_CreateAndComplete(t *testing.T) {
	tasks := &stubTasks{task: &models.LeadTask{ID: 7, TaskType: models.TaskTypeCustom, Title: "Call back"}}
	leads := &stubLeads{task: &models.LeadTask{ID: 7, Completed: true, Status: models.TaskStatusCompleted}}
	r := leadRouter(leads, tasks)

	w := do(t, r, http.MethodPost, "/leads/3/tasks", map[string]any{
		"task_type": "custom", "title": "Call back", "task_data": map[string]any{"notes": "after 5pm"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.TaskTypeCustom, tasks.in.TaskType)
	assert.JSONEq(t, `{"notes":"after 5pm"}`, string(tasks.in.Data))

	w = do(t, r, http.MethodPost, "/leads/tasks/7/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["completed"])

	w = do(t, r, http.MethodGet, "/leads/3/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestMustActor_Anonymous(t *testing.T) {
	h := NewLeadHandler(&stubLeads{}, &stubTasks{}, nil, nil)
	r := gin.New()
	r.GET("/leads/:id", h.GetByID)

	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/leads/1", nil).Code)
}

func TestLeadHandler_CreateFromChat(t *testing.T) {
	leads := &stubLeads{lead: &models.Lead{ID: 11, ChatSessionID: "sess-9"}, chatCreated: true}
	r := leadRouter(leads, &stubTasks{})

	w := do(t, r, http.MethodPost, "/leads/from-chat/sess-9", map[string]any{"name": "Асель", "phone": "+77011112233"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(11), decode(t, w)["id"])
	assert.Equal(t, "sess-9", leads.chatSession)
	assert.Equal(t, "Асель", leads.chatInput.Name)

	// no body is fine, and an existing lead comes back with 200
	leads.chatCreated = false
	w = do(t, r, http.MethodPost, "/leads/from-chat/sess-9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(11), decode(t, w)["id"])
	assert.Empty(t, leads.chatInput.Name)
}

func TestAuthHandler_CreateAdmin(t *testing.T) {
	auth := &stubAuth{admin: &models.Admin{ID: 4, Email: "new@dealer.kz", ProjectID: models.ProjectOffice2}}
	h := NewAuthHandler(auth)
	r := gin.New()
	r.POST("/admins", h.CreateAdmin)

	w := do(t, r, http.MethodPost, "/admins", map[string]any{
		"email": "new@dealer.kz", "password": "secret123", "project_id": "office_2",
		"permissions": map[string]any{"canViewLeads": true, "canManageLeads": false},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(4), decode(t, w)["id"])
	assert.Equal(t, "office_2", auth.in.ProjectID)
	require.NotNil(t, auth.in.Permissions.CanManageLeads)
	assert.False(t, *auth.in.Permissions.CanManageLeads)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/admins", map[string]any{"email": "x@y"}).Code)

	auth.err = services.ErrConflict
	w = do(t, r, http.MethodPost, "/admins", map[string]any{
		"email": "new@dealer.kz", "password": "secret123", "project_id": "office_2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}
