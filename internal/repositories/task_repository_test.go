package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodealer/internal/models"
)

var taskCols = []string{"id", "lead_id", "admin_id", "task_type", "title", "description", "status",
	"completed", "completed_at", "due_date", "task_data", "created_at", "updated_at"}

func TestTaskStore_EncodesPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	due := time.Now().Add(2 * time.Hour)
	task := &models.LeadTask{
		LeadID:   1,
		AdminID:  2,
		TaskType: models.TaskTypeFirstContact,
		Title:    "Первый контакт",
		Status:   models.TaskStatusPending,
		DueDate:  &due,
		Data:     &models.FirstContactData{ClientName: "Aigerim"},
	}

	mock.ExpectQuery("INSERT INTO lead_tasks").
		WithArgs(int64(1), int64(2), models.TaskTypeFirstContact, task.Title, "", models.TaskStatusPending,
			false, nil, due, []byte(`{"client_name":"Aigerim"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(10, due, due))

	require.NoError(t, NewTaskRepository(db).Store(context.Background(), task))
	assert.Equal(t, int64(10), task.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskFindByID_DecodesPayload(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM lead_tasks WHERE id").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow(
			4, 1, 2, "send_calculation", "Расчёт", "", "pending", false, nil, now,
			[]byte(`{"car_price":12000000,"term_months":36}`), now, now))

	task, err := NewTaskRepository(db).FindByID(context.Background(), 4)
	require.NoError(t, err)
	data, ok := task.Data.(*models.SendCalculationData)
	require.True(t, ok)
	require.NotNil(t, data.CarPrice)
	assert.Equal(t, int64(12000000), *data.CarPrice)
	assert.Equal(t, 36, *data.TermMonths)
}

func TestTaskFindAll_FiltersByLead(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	leadID := int64(3)
	done := false
	now := time.Now()
	mock.ExpectQuery(`FROM lead_tasks WHERE lead_id = \$1 AND completed = \$2 ORDER BY due_date`).
		WithArgs(leadID, false).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(1, 3, 2, "first_contact", "a", "", "pending", false, nil, nil, []byte(`{}`), now, now).
			AddRow(2, 3, 2, "custom", "b", "", "pending", false, nil, nil, nil, now, now))

	tasks, err := NewTaskRepository(db).FindAll(context.Background(), models.TaskFilter{LeadID: &leadID, Completed: &done})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.IsType(t, &models.FirstContactData{}, tasks[0].Data)
	assert.IsType(t, &models.CustomTaskData{}, tasks[1].Data)
}

func TestTaskExistingTypes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT DISTINCT task_type FROM lead_tasks").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"task_type"}).AddRow("first_contact").AddRow("qualify_lead"))

	types, err := NewTaskRepository(db).ExistingTypes(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, types[models.TaskTypeFirstContact])
	assert.True(t, types[models.TaskTypeQualifyLead])
	assert.False(t, types[models.TaskTypeSendOffers])
}

func TestTaskReassignOpen(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE lead_tasks SET admin_id").
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewTaskRepository(db).ReassignOpen(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestAdminListByProject_DecodesPermissions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	cols := []string{"id", "email", "password_hash", "is_super", "project_id", "permissions",
		"telegram_chat_id", "notify_telegram", "created_at", "deleted_at"}
	mock.ExpectQuery("FROM admins WHERE project_id").
		WithArgs("office_1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "a@x.kz", "h", false, "office_1", []byte(`{"canManageLeads":false}`), 0, true, now, nil).
			AddRow(2, "b@x.kz", "h", false, "office_1", []byte(`{}`), 555, true, now, nil))

	admins, err := NewAdminRepository(db).ListByProject(context.Background(), "office_1")
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.False(t, admins[0].ManagesLeads())
	assert.True(t, admins[1].ManagesLeads())
	assert.Equal(t, int64(555), admins[1].TelegramChatID)
}

func TestTagCreate_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO lead_tags").
		WithArgs("vip", models.DefaultTagColor).
		WillReturnError(&pq.Error{Code: "23505"})

	err = NewTagRepository(db).Create(context.Background(), &models.LeadTag{Name: "vip", Color: models.DefaultTagColor})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestTagAttach_IgnoresConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO lead_tag_relations (.+) ON CONFLICT \(lead_id, tag_id\) DO NOTHING`).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, NewTagRepository(db).Attach(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, EnsureSchema(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTelegramLinkUseByCode_Expired(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	past := time.Now().Add(-time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM telegram_links").
		WithArgs("ABC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "admin_id", "code", "expires_at", "used", "created_at"}).
			AddRow(1, 2, "ABC", past, false, past))
	mock.ExpectRollback()

	_, err = NewTelegramLinkRepository(db).UseByCode(context.Background(), "ABC")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTelegramLinkUseByCode_MarksUsed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	future := time.Now().Add(time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM telegram_links").
		WithArgs("ABC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "admin_id", "code", "expires_at", "used", "created_at"}).
			AddRow(1, 2, "ABC", future, false, time.Now()))
	mock.ExpectExec("UPDATE telegram_links SET used").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	link, err := NewTelegramLinkRepository(db).UseByCode(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, int64(2), link.AdminID)
	assert.True(t, link.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}
