package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodealer/internal/models"
)

func newEngine(db *memDB) *TaskTemplateEngine {
	e := NewTaskTemplateEngine(fakeTasks{db}, NewActivityLog(fakeActivities{db}, nil))
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }
	return e
}

func typesOf(tasks []models.LeadTask) []models.TaskType {
	out := make([]models.TaskType, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.TaskType)
	}
	return out
}

func TestGenerateTasks_NewLeadGetsOpeningSteps(t *testing.T) {
	db := newMemDB()
	e := newEngine(db)
	lead := &models.Lead{ID: 5, Name: "Данияр", Phone: "+77015550000", Email: "d@mail.kz", PipelineStage: models.StageNewLead}

	tasks, err := e.GenerateTasksForLead(context.Background(), lead, int64p(2))
	require.NoError(t, err)
	assert.Equal(t, []models.TaskType{
		models.TaskTypeFirstContact, models.TaskTypeQualifyLead, models.TaskTypeCarPreferences,
	}, typesOf(tasks))

	first := tasks[0]
	assert.Equal(t, int64(2), first.AdminID)
	assert.Equal(t, models.TaskStatusPending, first.Status)
	assert.Equal(t, e.now().Add(2*time.Hour), *first.DueDate)
	assert.Equal(t, e.now().Add(2*day), *tasks[2].DueDate)

	seed, ok := first.Data.(*models.FirstContactData)
	require.True(t, ok)
	assert.Equal(t, "Данияр", seed.ClientName)
	assert.Equal(t, "+77015550000", seed.Phone)

	assert.Len(t, db.activitiesOf(5, models.ActivityTaskCreated), 3)
}

func TestGenerateTasks_Idempotent(t *testing.T) {
	db := newMemDB()
	e := newEngine(db)
	lead := &models.Lead{ID: 5, Name: "A", PipelineStage: models.StageNewLead}

	first, err := e.GenerateTasksForLead(context.Background(), lead, int64p(1))
	require.NoError(t, err)
	require.Len(t, first, 3)

	again, err := e.GenerateTasksForLead(context.Background(), lead, int64p(1))
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Len(t, db.tasksOf(5), 3)
}

func TestGenerateTasks_CompletedTypeNotRecreated(t *testing.T) {
	db := newMemDB()
	e := newEngine(db)
	db.tasks[100] = &models.LeadTask{ID: 100, LeadID: 5, TaskType: models.TaskTypeFirstContact, Completed: true}
	lead := &models.Lead{ID: 5, Name: "A", PipelineStage: models.StageNeedsAnalysis}

	tasks, err := e.GenerateTasksForLead(context.Background(), lead, int64p(1))
	require.NoError(t, err)
	assert.Equal(t, []models.TaskType{
		models.TaskTypeQualifyLead, models.TaskTypeCarPreferences,
		models.TaskTypeSendOffers, models.TaskTypeSendCalculation,
	}, typesOf(tasks))
}

func TestGenerateTasks_NoAdminNoTasks(t *testing.T) {
	db := newMemDB()
	e := newEngine(db)
	tasks, err := e.GenerateTasksForLead(context.Background(), &models.Lead{ID: 1, PipelineStage: models.StageNewLead}, nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Empty(t, db.tasks)
}

func TestGenerateTasks_TerminalStages(t *testing.T) {
	for _, stage := range []models.PipelineStage{models.StageWon, models.StageLost} {
		db := newMemDB()
		e := newEngine(db)
		tasks, err := e.GenerateTasksForLead(context.Background(), &models.Lead{ID: 1, PipelineStage: stage}, int64p(1))
		require.NoError(t, err)
		assert.Empty(t, tasks, stage)
	}
}

func TestGenerateTasks_DealClosingCoversWholePlaybook(t *testing.T) {
	db := newMemDB()
	e := newEngine(db)
	tasks, err := e.GenerateTasksForLead(context.Background(), &models.Lead{ID: 1, PipelineStage: models.StageDealClosing}, int64p(1))
	require.NoError(t, err)
	assert.Len(t, tasks, len(playbook))
	assert.Equal(t, models.TaskTypeConfirmDeal, tasks[len(tasks)-1].TaskType)
	assert.Equal(t, e.now().Add(21*day), *tasks[len(tasks)-1].DueDate)
}

func TestGenerateTasks_StoreFailureStopsPass(t *testing.T) {
	db := newMemDB()
	db.failTaskGen = true
	e := newEngine(db)
	tasks, err := e.GenerateTasksForLead(context.Background(), &models.Lead{ID: 1, PipelineStage: models.StageNewLead}, int64p(1))
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, tasks)
}

func TestReassignOpenTasks_LeavesCompletedAlone(t *testing.T) {
	db := newMemDB()
	e := newEngine(db)
	db.tasks[1] = &models.LeadTask{ID: 1, LeadID: 9, AdminID: 1}
	db.tasks[2] = &models.LeadTask{ID: 2, LeadID: 9, AdminID: 1, Completed: true}

	n, err := e.ReassignOpenTasks(context.Background(), &models.Lead{ID: 9}, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(4), db.tasks[1].AdminID)
	assert.Equal(t, int64(1), db.tasks[2].AdminID)
}
