package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"autodealer/internal/models"
	"autodealer/internal/repositories"
)

// memDB backs the in-memory repositories used by the service tests.
type memDB struct {
	nextID      int64
	leads       map[int64]*models.Lead
	tasks       map[int64]*models.LeadTask
	admins      []models.Admin
	comments    map[int64]*models.LeadComment
	meetings    map[int64]*models.LeadMeeting
	tags        map[int64]*models.LeadTag
	tagLinks    map[[2]int64]bool
	attachments map[int64]*models.LeadAttachment
	activities  []models.Activity

	failActivity bool
	failTaskGen  bool
}

func newMemDB() *memDB {
	return &memDB{
		leads:       map[int64]*models.Lead{},
		tasks:       map[int64]*models.LeadTask{},
		comments:    map[int64]*models.LeadComment{},
		meetings:    map[int64]*models.LeadMeeting{},
		tags:        map[int64]*models.LeadTag{},
		tagLinks:    map[[2]int64]bool{},
		attachments: map[int64]*models.LeadAttachment{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

func (db *memDB) activitiesOf(leadID int64, kind models.ActivityType) []models.Activity {
	var out []models.Activity
	for _, a := range db.activities {
		if a.LeadID == leadID && a.ActivityType == kind {
			out = append(out, a)
		}
	}
	return out
}

func (db *memDB) tasksOf(leadID int64) []models.LeadTask {
	var out []models.LeadTask
	for _, t := range db.tasks {
		if t.LeadID == leadID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var errBoom = errors.New("boom")

// ---- leads ----

type fakeLeads struct{ db *memDB }

func (f fakeLeads) Create(_ context.Context, l *models.Lead) error {
	l.ID = f.db.id()
	cp := *l
	f.db.leads[l.ID] = &cp
	return nil
}

func (f fakeLeads) Update(_ context.Context, l *models.Lead) error {
	if _, ok := f.db.leads[l.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *l
	f.db.leads[l.ID] = &cp
	return nil
}

func (f fakeLeads) UpdateScore(_ context.Context, id int64, score int) error {
	if l, ok := f.db.leads[id]; ok {
		l.Score = score
	}
	return nil
}

func (f fakeLeads) GetByID(_ context.Context, id int64) (*models.Lead, error) {
	l, ok := f.db.leads[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f fakeLeads) FindByChatSession(_ context.Context, chatSessionID string) (*models.Lead, error) {
	var found *models.Lead
	for _, l := range f.db.leads {
		if l.ChatSessionID == chatSessionID && (found == nil || l.ID < found.ID) {
			found = l
		}
	}
	if found == nil {
		return nil, repositories.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

// flakyLeads fails the next failUpdates calls to Update.
type flakyLeads struct {
	fakeLeads
	failUpdates int
}

func (f *flakyLeads) Update(ctx context.Context, l *models.Lead) error {
	if f.failUpdates > 0 {
		f.failUpdates--
		return errBoom
	}
	return f.fakeLeads.Update(ctx, l)
}

func (f fakeLeads) Delete(_ context.Context, id int64) error {
	if _, ok := f.db.leads[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.db.leads, id)
	return nil
}

func (f fakeLeads) List(_ context.Context, filter models.LeadFilter) ([]models.Lead, error) {
	var out []models.Lead
	for _, l := range f.db.leads {
		if filter.ProjectID != "" && l.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeLeads) CountActiveByAdmin(_ context.Context, adminID int64) (int, error) {
	n := 0
	for _, l := range f.db.leads {
		if l.AssignedAdminID != nil && *l.AssignedAdminID == adminID && l.Status.IsActive() {
			n++
		}
	}
	return n, nil
}

func (f fakeLeads) CountUnprocessed(_ context.Context, projectID string) (int, error) {
	n := 0
	for _, l := range f.db.leads {
		if projectID != "" && l.ProjectID != projectID {
			continue
		}
		if l.Status != models.LeadStatusNew && l.Status != models.LeadStatusInProgress {
			continue
		}
		if l.Score >= 50 || l.AssignedAdminID == nil {
			n++
		}
	}
	return n, nil
}

func (f fakeLeads) Stats(_ context.Context, projectID string) (*models.LeadStats, error) {
	st := &models.LeadStats{ByStatus: map[models.LeadStatus]int{}, BySource: map[models.LeadSource]int{}}
	for _, l := range f.db.leads {
		if projectID != "" && l.ProjectID != projectID {
			continue
		}
		st.Total++
		st.ByStatus[l.Status]++
		st.BySource[l.Source]++
	}
	return st, nil
}

// ---- tasks ----

type fakeTasks struct{ db *memDB }

func (f fakeTasks) Store(_ context.Context, t *models.LeadTask) error {
	if f.db.failTaskGen {
		return errBoom
	}
	t.ID = f.db.id()
	cp := *t
	f.db.tasks[t.ID] = &cp
	return nil
}

func (f fakeTasks) FindByID(_ context.Context, id int64) (*models.LeadTask, error) {
	t, ok := f.db.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeTasks) FindAll(_ context.Context, filter models.TaskFilter) ([]models.LeadTask, error) {
	var out []models.LeadTask
	for _, t := range f.db.tasks {
		if filter.LeadID != nil && t.LeadID != *filter.LeadID {
			continue
		}
		if filter.AdminID != nil && t.AdminID != *filter.AdminID {
			continue
		}
		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeTasks) Update(_ context.Context, t *models.LeadTask) error {
	if _, ok := f.db.tasks[t.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *t
	f.db.tasks[t.ID] = &cp
	return nil
}

func (f fakeTasks) Delete(_ context.Context, id int64) error {
	if _, ok := f.db.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.db.tasks, id)
	return nil
}

func (f fakeTasks) ExistingTypes(_ context.Context, leadID int64) (map[models.TaskType]bool, error) {
	out := map[models.TaskType]bool{}
	for _, t := range f.db.tasks {
		if t.LeadID == leadID {
			out[t.TaskType] = true
		}
	}
	return out, nil
}

func (f fakeTasks) CountByLead(_ context.Context, leadID int64) (int, error) {
	return len(f.db.tasksOf(leadID)), nil
}

func (f fakeTasks) ReassignOpen(_ context.Context, leadID, adminID int64) (int64, error) {
	var n int64
	for _, t := range f.db.tasks {
		if t.LeadID == leadID && !t.Completed {
			t.AdminID = adminID
			n++
		}
	}
	return n, nil
}

// ---- admins ----

type fakeAdmins struct{ db *memDB }

func (f fakeAdmins) Create(_ context.Context, a *models.Admin) error {
	for _, existing := range f.db.admins {
		if existing.Email == a.Email {
			return repositories.ErrDuplicate
		}
	}
	a.ID = f.db.id()
	f.db.admins = append(f.db.admins, *a)
	return nil
}

func (f fakeAdmins) GetByID(_ context.Context, id int64) (*models.Admin, error) {
	for i := range f.db.admins {
		if f.db.admins[i].ID == id {
			cp := f.db.admins[i]
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeAdmins) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	for i := range f.db.admins {
		if strings.EqualFold(f.db.admins[i].Email, email) {
			cp := f.db.admins[i]
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeAdmins) ListByProject(_ context.Context, projectID string) ([]models.Admin, error) {
	var out []models.Admin
	for _, a := range f.db.admins {
		if a.ProjectID == projectID && a.DeletedAt == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f fakeAdmins) GetByChatID(_ context.Context, chatID int64) (*models.Admin, error) {
	for i := range f.db.admins {
		if f.db.admins[i].TelegramChatID == chatID {
			cp := f.db.admins[i]
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f fakeAdmins) UpdateTelegramLink(_ context.Context, adminID, chatID int64, enable bool) error {
	for i := range f.db.admins {
		if f.db.admins[i].ID == adminID {
			f.db.admins[i].TelegramChatID = chatID
			f.db.admins[i].NotifyTelegram = enable
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f fakeAdmins) GetTelegramSettings(_ context.Context, adminID int64) (int64, bool, error) {
	for _, a := range f.db.admins {
		if a.ID == adminID {
			return a.TelegramChatID, a.NotifyTelegram, nil
		}
	}
	return 0, false, repositories.ErrNotFound
}

// ---- activity ----

type fakeActivities struct{ db *memDB }

func (f fakeActivities) Create(_ context.Context, a *models.Activity) error {
	if f.db.failActivity {
		return errBoom
	}
	a.ID = f.db.id()
	f.db.activities = append(f.db.activities, *a)
	return nil
}

func (f fakeActivities) ListByLead(_ context.Context, leadID int64, limit int) ([]models.Activity, error) {
	var out []models.Activity
	for i := len(f.db.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if f.db.activities[i].LeadID == leadID {
			out = append(out, f.db.activities[i])
		}
	}
	return out, nil
}

// ---- comments ----

type fakeComments struct{ db *memDB }

func (f fakeComments) Create(_ context.Context, c *models.LeadComment) error {
	c.ID = f.db.id()
	cp := *c
	f.db.comments[c.ID] = &cp
	return nil
}

func (f fakeComments) GetByID(_ context.Context, id int64) (*models.LeadComment, error) {
	c, ok := f.db.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeComments) ListByLead(_ context.Context, leadID int64) ([]models.LeadComment, error) {
	var out []models.LeadComment
	for _, c := range f.db.comments {
		if c.LeadID == leadID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f fakeComments) CountByLead(ctx context.Context, leadID int64) (int, error) {
	list, _ := f.ListByLead(ctx, leadID)
	return len(list), nil
}

func (f fakeComments) Delete(_ context.Context, id int64) error {
	if _, ok := f.db.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.db.comments, id)
	return nil
}

// ---- meetings ----

type fakeMeetings struct{ db *memDB }

func (f fakeMeetings) Create(_ context.Context, m *models.LeadMeeting) error {
	m.ID = f.db.id()
	cp := *m
	f.db.meetings[m.ID] = &cp
	return nil
}

func (f fakeMeetings) GetByID(_ context.Context, id int64) (*models.LeadMeeting, error) {
	m, ok := f.db.meetings[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f fakeMeetings) ListByLead(_ context.Context, leadID int64) ([]models.LeadMeeting, error) {
	var out []models.LeadMeeting
	for _, m := range f.db.meetings {
		if m.LeadID == leadID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f fakeMeetings) CountByLead(ctx context.Context, leadID int64) (int, error) {
	list, _ := f.ListByLead(ctx, leadID)
	return len(list), nil
}

func (f fakeMeetings) Update(_ context.Context, m *models.LeadMeeting) error {
	if _, ok := f.db.meetings[m.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *m
	f.db.meetings[m.ID] = &cp
	return nil
}

func (f fakeMeetings) Delete(_ context.Context, id int64) error {
	if _, ok := f.db.meetings[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.db.meetings, id)
	return nil
}

// ---- tags ----

type fakeTags struct{ db *memDB }

func (f fakeTags) Create(_ context.Context, t *models.LeadTag) error {
	for _, existing := range f.db.tags {
		if existing.Name == t.Name {
			return repositories.ErrDuplicate
		}
	}
	t.ID = f.db.id()
	cp := *t
	f.db.tags[t.ID] = &cp
	return nil
}

func (f fakeTags) GetByID(_ context.Context, id int64) (*models.LeadTag, error) {
	t, ok := f.db.tags[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeTags) List(_ context.Context) ([]models.LeadTag, error) {
	var out []models.LeadTag
	for _, t := range f.db.tags {
		out = append(out, *t)
	}
	return out, nil
}

func (f fakeTags) Delete(_ context.Context, id int64) error {
	delete(f.db.tags, id)
	return nil
}

func (f fakeTags) Attach(_ context.Context, leadID, tagID int64) error {
	f.db.tagLinks[[2]int64{leadID, tagID}] = true
	return nil
}

func (f fakeTags) Detach(_ context.Context, leadID, tagID int64) error {
	key := [2]int64{leadID, tagID}
	if !f.db.tagLinks[key] {
		return repositories.ErrNotFound
	}
	delete(f.db.tagLinks, key)
	return nil
}

func (f fakeTags) ListByLead(_ context.Context, leadID int64) ([]models.LeadTag, error) {
	var out []models.LeadTag
	for key := range f.db.tagLinks {
		if key[0] == leadID {
			out = append(out, *f.db.tags[key[1]])
		}
	}
	return out, nil
}

// ---- attachments ----

type fakeAttachments struct{ db *memDB }

func (f fakeAttachments) Create(_ context.Context, a *models.LeadAttachment) error {
	a.ID = f.db.id()
	cp := *a
	f.db.attachments[a.ID] = &cp
	return nil
}

func (f fakeAttachments) GetByID(_ context.Context, id int64) (*models.LeadAttachment, error) {
	a, ok := f.db.attachments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f fakeAttachments) ListByLead(_ context.Context, leadID int64) ([]models.LeadAttachment, error) {
	var out []models.LeadAttachment
	for _, a := range f.db.attachments {
		if a.LeadID == leadID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f fakeAttachments) Delete(_ context.Context, id int64) error {
	if _, ok := f.db.attachments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.db.attachments, id)
	return nil
}

// ---- notifier / publisher ----

type recordingNotifier struct {
	assigned []int64
	tasks    map[int64]int
}

func (n *recordingNotifier) LeadAssigned(_ context.Context, admin *models.Admin, _ *models.Lead) error {
	n.assigned = append(n.assigned, admin.ID)
	return nil
}

func (n *recordingNotifier) TasksCreated(_ context.Context, admin *models.Admin, _ *models.Lead, tasks []models.LeadTask) error {
	if n.tasks == nil {
		n.tasks = map[int64]int{}
	}
	n.tasks[admin.ID] += len(tasks)
	return nil
}

type recordingPublisher struct {
	events []models.Activity
}

func (p *recordingPublisher) PublishActivity(_ string, a models.Activity) {
	p.events = append(p.events, a)
}

type fixture struct {
	db        *memDB
	svc       *LeadService
	tasks     LeadTaskService
	extras    *LeadExtrasService
	notifier  *recordingNotifier
	publisher *recordingPublisher
}

func newFixture(admins ...models.Admin) *fixture {
	db := newMemDB()
	for _, a := range admins {
		if a.ID > db.nextID {
			db.nextID = a.ID
		}
		db.admins = append(db.admins, a)
	}
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	svc := NewLeadService(LeadServiceDeps{
		Leads:      fakeLeads{db},
		Tasks:      fakeTasks{db},
		Admins:     fakeAdmins{db},
		Comments:   fakeComments{db},
		Meetings:   fakeMeetings{db},
		Activities: fakeActivities{db},
		Publisher:  publisher,
		Notifier:   notifier,
	})
	return &fixture{
		db:        db,
		svc:       svc,
		tasks:     NewLeadTaskService(svc),
		extras:    NewLeadExtrasService(svc, fakeTags{db}, fakeAttachments{db}),
		notifier:  notifier,
		publisher: publisher,
	}
}

func newAdmin(id int64, project string) models.Admin {
	return models.Admin{ID: id, Email: fmt.Sprintf("admin%d@dealer.kz", id), ProjectID: project}
}

func int64p(v int64) *int64 { return &v }
func boolp(v bool) *bool    { return &v }
