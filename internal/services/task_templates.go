package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"autodealer/internal/models"
	"autodealer/internal/repositories"
)

type taskTemplate struct {
	Type        models.TaskType
	Title       string
	Description string
	DueIn       time.Duration
	// OpensAt is the earliest stage at which the step is handed out.
	OpensAt models.PipelineStage
	Seed    func(lead *models.Lead) models.TaskData
}

const day = 24 * time.Hour

// playbook is the ordered sales script. Steps unlock as the lead moves
// through the funnel.
var playbook = []taskTemplate{
	{
		Type:  models.TaskTypeFirstContact,
		Title: "Первый контакт с клиентом",
		Description: `Свяжитесь с клиентом в течение 2 часов.
1. Представьтесь и назовите салон.
2. Уточните, как к клиенту удобнее обращаться.
3. Подтвердите телефон и email.
4. Выберите удобный канал связи (телефон, Telegram, WhatsApp, email).
5. Зафиксируйте результат звонка в задаче.`,
		DueIn:   2 * time.Hour,
		OpensAt: models.StageNewLead,
		Seed: func(l *models.Lead) models.TaskData {
			return &models.FirstContactData{ClientName: l.Name, Email: l.Email, Phone: l.Phone}
		},
	},
	{
		Type:  models.TaskTypeQualifyLead,
		Title: "Квалификация клиента",
		Description: `Определите, готов ли клиент к покупке.
1. Бюджет: минимальная и максимальная сумма.
2. Способ оплаты: наличные, кредит, лизинг, trade-in.
3. Сроки покупки.
4. Кто принимает решение о покупке.`,
		DueIn:   day,
		OpensAt: models.StageNewLead,
		Seed:    func(*models.Lead) models.TaskData { return &models.QualificationData{} },
	},
	{
		Type:  models.TaskTypeCarPreferences,
		Title: "Выяснить предпочтения по автомобилю",
		Description: `Соберите требования к автомобилю.
1. Марки и модели, которые рассматривает клиент.
2. Тип кузова, коробка передач, тип топлива.
3. Год выпуска не старше и допустимый пробег.
4. Обязательные опции.`,
		DueIn:   2 * day,
		OpensAt: models.StageNewLead,
		Seed:    func(*models.Lead) models.TaskData { return &models.CarPreferencesData{} },
	},
	{
		Type:  models.TaskTypeSendOffers,
		Title: "Отправить подборку автомобилей",
		Description: `Подберите 3-5 автомобилей из наличия под требования клиента.
Отправьте подборку удобным клиенту способом и запросите обратную связь.`,
		DueIn:   3 * day,
		OpensAt: models.StageNeedsAnalysis,
		Seed: func(l *models.Lead) models.TaskData {
			return &models.SendOffersData{ClientEmail: l.Email}
		},
	},
	{
		Type:  models.TaskTypeSendCalculation,
		Title: "Отправить расчёт стоимости",
		Description: `Подготовьте расчёт по выбранному автомобилю.
1. Цена автомобиля и первоначальный взнос.
2. Срок и ежемесячный платёж для кредита или лизинга.
3. Банк или лизинговая компания.`,
		DueIn:   4 * day,
		OpensAt: models.StageNeedsAnalysis,
		Seed: func(l *models.Lead) models.TaskData {
			return &models.SendCalculationData{ClientEmail: l.Email}
		},
	},
	{
		Type:  models.TaskTypeScheduleMeeting,
		Title: "Назначить встречу или тест-драйв",
		Description: `Договоритесь о визите в салон.
Согласуйте дату, время и необходимость тест-драйва. Напомните клиенту о встрече за день.`,
		DueIn:   7 * day,
		OpensAt: models.StagePresentation,
		Seed: func(l *models.Lead) models.TaskData {
			return &models.ScheduleMeetingData{ClientPhone: l.Phone}
		},
	},
	{
		Type:  models.TaskTypeSendContract,
		Title: "Отправить договор",
		Description: `Подготовьте договор купли-продажи и отправьте клиенту на согласование.
Зафиксируйте номер договора и дату отправки.`,
		DueIn:   10 * day,
		OpensAt: models.StageNegotiation,
		Seed: func(l *models.Lead) models.TaskData {
			return &models.SendContractData{ClientEmail: l.Email}
		},
	},
	{
		Type:  models.TaskTypeGetPrepayment,
		Title: "Получить предоплату",
		Description: `Выставьте счёт на предоплату и проконтролируйте поступление.
Укажите сумму, валюту и способ оплаты.`,
		DueIn:   14 * day,
		OpensAt: models.StageNegotiation,
		Seed:    func(*models.Lead) models.TaskData { return &models.GetPrepaymentData{} },
	},
	{
		Type:  models.TaskTypeConfirmDeal,
		Title: "Подтвердить сделку",
		Description: `Закройте сделку.
1. Финальная цена.
2. Дата выдачи автомобиля.
3. Передача документов и ключей.`,
		DueIn:   21 * day,
		OpensAt: models.StageDealClosing,
		Seed:    func(*models.Lead) models.TaskData { return &models.ConfirmDealData{} },
	},
}

// TaskTemplateEngine hands out playbook tasks for a lead.
type TaskTemplateEngine struct {
	tasks    repositories.TaskRepository
	activity *ActivityLog
	now      func() time.Time
}

func NewTaskTemplateEngine(tasks repositories.TaskRepository, activity *ActivityLog) *TaskTemplateEngine {
	return &TaskTemplateEngine{tasks: tasks, activity: activity, now: time.Now}
}

// templatesFor returns the playbook steps open at the given stage.
func templatesFor(stage models.PipelineStage) []taskTemplate {
	if IsTerminalStage(stage) {
		return nil
	}
	at := StageOrdinal(stage)
	var out []taskTemplate
	for _, t := range playbook {
		if StageOrdinal(t.OpensAt) <= at {
			out = append(out, t)
		}
	}
	return out
}

// GenerateTasksForLead creates the playbook tasks of the lead's stage that
// the lead does not have yet. A task type that already exists, completed or
// not, is never created again. Nothing happens without an admin.
func (e *TaskTemplateEngine) GenerateTasksForLead(ctx context.Context, lead *models.Lead, adminID *int64) ([]models.LeadTask, error) {
	if adminID == nil {
		return nil, nil
	}
	templates := templatesFor(lead.PipelineStage)
	if len(templates) == 0 {
		return nil, nil
	}

	existing, err := e.tasks.ExistingTypes(ctx, lead.ID)
	if err != nil {
		return nil, fmt.Errorf("load existing task types: %w", err)
	}
	if existing == nil {
		existing = map[models.TaskType]bool{}
	}

	now := e.now()
	var created []models.LeadTask
	for _, tpl := range templates {
		if existing[tpl.Type] {
			continue
		}
		due := now.Add(tpl.DueIn)
		task := models.LeadTask{
			LeadID:      lead.ID,
			AdminID:     *adminID,
			TaskType:    tpl.Type,
			Title:       tpl.Title,
			Description: tpl.Description,
			Status:      models.TaskStatusPending,
			DueDate:     &due,
			Data:        tpl.Seed(lead),
		}
		if err := e.tasks.Store(ctx, &task); err != nil {
			return created, fmt.Errorf("store %s task: %w", tpl.Type, err)
		}
		existing[tpl.Type] = true
		created = append(created, task)

		e.activity.Record(ctx, lead, models.Activity{
			AdminID:      adminID,
			ActivityType: models.ActivityTaskCreated,
			NewValue:     string(tpl.Type),
			Description:  fmt.Sprintf("Создана задача: %s", tpl.Title),
		})
	}

	if len(created) > 0 {
		logrus.WithFields(logrus.Fields{
			"lead_id":  lead.ID,
			"admin_id": *adminID,
			"stage":    lead.PipelineStage,
			"count":    len(created),
		}).Info("[task][generate] playbook tasks created")
	}
	return created, nil
}

// ReassignOpenTasks points every incomplete task of the lead at adminID.
// Completed tasks keep the admin who did the work.
func (e *TaskTemplateEngine) ReassignOpenTasks(ctx context.Context, lead *models.Lead, adminID int64) (int64, error) {
	n, err := e.tasks.ReassignOpen(ctx, lead.ID, adminID)
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"lead_id": lead.ID, "admin_id": adminID, "count": n}).
		Info("[task][reassign] open tasks moved")
	return n, nil
}
