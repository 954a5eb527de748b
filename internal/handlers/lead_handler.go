package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"autodealer/internal/authz"
	"autodealer/internal/models"
	"autodealer/internal/pdf"
	"autodealer/internal/services"
)

// LeadOperations is the part of services.LeadService the HTTP layer uses.
type LeadOperations interface {
	CreateLead(ctx context.Context, in services.CreateLeadInput, actor authz.Actor) (*models.Lead, error)
	CreateLeadFromChat(ctx context.Context, chatSessionID string, in services.ChatLeadInput, actor authz.Actor) (*models.Lead, bool, error)
	UpdateLead(ctx context.Context, id int64, patch services.LeadPatch, actor authz.Actor) (*models.Lead, error)
	GetLead(ctx context.Context, id int64, actor authz.Actor) (*models.Lead, error)
	ListLeads(ctx context.Context, filter models.LeadFilter, actor authz.Actor) ([]models.Lead, error)
	DeleteLead(ctx context.Context, id int64, actor authz.Actor) error
	ConvertToClient(ctx context.Context, id int64, actor authz.Actor) (*models.Lead, error)
	RecalculateScore(ctx context.Context, id int64, actor authz.Actor) (*models.Lead, error)
	GetStats(ctx context.Context, actor authz.Actor) (*models.LeadStats, error)
	GetUnprocessedLeadCount(ctx context.Context, actor authz.Actor) (int, error)
	ListActivities(ctx context.Context, leadID int64, limit int, actor authz.Actor) ([]models.Activity, error)
	CompleteTask(ctx context.Context, taskID int64, actor authz.Actor) (*models.LeadTask, error)
}

type adminLookup interface {
	GetByID(ctx context.Context, id int64) (*models.Admin, error)
}

type LeadHandler struct {
	leads  LeadOperations
	tasks  services.LeadTaskService
	admins adminLookup
	cards  *pdf.CardGenerator
}

func NewLeadHandler(leads LeadOperations, tasks services.LeadTaskService, admins adminLookup, cards *pdf.CardGenerator) *LeadHandler {
	return &LeadHandler{leads: leads, tasks: tasks, admins: admins, cards: cards}
}

// @Summary      Создать лид
// @Description  Назначает наименее загруженного менеджера, выдаёт первые задачи и считает скоринг
// @Tags         Leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        lead  body      services.CreateLeadInput  true  "Данные лида"
// @Success      201   {object}  models.Lead
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /leads/ [post]
func (h *LeadHandler) Create(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var in services.CreateLeadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead, err := h.leads.CreateLead(c.Request.Context(), in, actor)
	if err != nil {
		respondError(c, "lead.create", err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// @Summary      Создать лид из чат-сессии
// @Description  Возвращает уже созданный для сессии лид (200) или создаёт новый (201)
// @Tags         Leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        chatSessionId  path      string                  true   "ID чат-сессии"
// @Param        client         body      services.ChatLeadInput  false  "Данные клиента из чата"
// @Success      200            {object}  models.Lead
// @Success      201            {object}  models.Lead
// @Failure      400            {object}  map[string]string
// @Router       /leads/from-chat/{chatSessionId} [post]
func (h *LeadHandler) CreateFromChat(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var in services.ChatLeadInput
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	lead, created, err := h.leads.CreateLeadFromChat(c.Request.Context(), c.Param("chatSessionId"), in, actor)
	if err != nil {
		respondError(c, "lead.from_chat", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, lead)
}

// @Summary      Список лидов
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Param        status             query     string  false  "Статус"
// @Param        source             query     string  false  "Источник"
// @Param        assigned_admin_id  query     int     false  "Ответственный"
// @Param        search             query     string  false  "Имя, email или телефон"
// @Param        page               query     int     false  "Страница"  default(1)
// @Param        size               query     int     false  "Размер страницы"  default(100)
// @Success      200  {array}   models.Lead
// @Failure      400  {object}  map[string]string
// @Router       /leads/ [get]
func (h *LeadHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := queryInt(c, "size", 100)
	if size < 1 {
		size = 100
	}
	filter := models.LeadFilter{
		ProjectID: c.Query("project_id"),
		Search:    c.Query("search"),
		Limit:     size,
		Offset:    (page - 1) * size,
	}
	if v := c.Query("status"); v != "" {
		status := models.LeadStatus(v)
		filter.Status = &status
	}
	if v := c.Query("source"); v != "" {
		source := models.LeadSource(v)
		filter.Source = &source
	}
	if v := c.Query("assigned_admin_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assigned_admin_id"})
			return
		}
		filter.AssignedAdminID = &id
	}

	leads, err := h.leads.ListLeads(c.Request.Context(), filter, actor)
	if err != nil {
		respondError(c, "lead.list", err)
		return
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	c.JSON(http.StatusOK, leads)
}

// @Summary      Получить лид
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "ID лида"
// @Success      200  {object}  models.Lead
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /leads/{id} [get]
func (h *LeadHandler) GetByID(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lead, err := h.leads.GetLead(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, "lead.get", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// @Summary      Обновить лид
// @Description  Передаются только изменяемые поля. assigned_admin_id = 0 снимает ответственного
// @Tags         Leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int                 true  "ID лида"
// @Param        patch  body      services.LeadPatch  true  "Изменения"
// @Success      200    {object}  models.Lead
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /leads/{id} [put]
func (h *LeadHandler) Update(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch services.LeadPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lead, err := h.leads.UpdateLead(c.Request.Context(), id, patch, actor)
	if err != nil {
		respondError(c, "lead.update", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// @Summary      Удалить лид
// @Tags         Leads
// @Security     BearerAuth
// @Param        id   path  int  true  "ID лида"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /leads/{id} [delete]
func (h *LeadHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.leads.DeleteLead(c.Request.Context(), id, actor); err != nil {
		respondError(c, "lead.delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Конвертировать лид в клиента
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "ID лида"
// @Success      200  {object}  models.Lead
// @Failure      409  {object}  map[string]string
// @Router       /leads/{id}/convert-to-client [post]
func (h *LeadHandler) ConvertToClient(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lead, err := h.leads.ConvertToClient(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, "lead.convert", err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// @Summary      Пересчитать скоринг
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "ID лида"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /leads/{id}/calculate-score [post]
func (h *LeadHandler) CalculateScore(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lead, err := h.leads.RecalculateScore(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, "lead.score", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": lead.ID, "score": lead.Score})
}

// @Summary      Сводка по лидам
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.LeadStats
// @Router       /leads/stats/summary [get]
func (h *LeadHandler) Stats(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	stats, err := h.leads.GetStats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, "lead.stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary      Количество необработанных лидов
// @Description  Новые и в работе, горячие (скоринг от 50) или без ответственного
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int
// @Router       /leads/stats/unprocessed-count [get]
func (h *LeadHandler) UnprocessedCount(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	n, err := h.leads.GetUnprocessedLeadCount(c.Request.Context(), actor)
	if err != nil {
		respondError(c, "lead.unprocessed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// @Summary      История изменений лида
// @Tags         Leads
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int  true   "ID лида"
// @Param        limit  query     int  false  "Количество записей"  default(50)
// @Success      200    {array}   models.Activity
// @Router       /leads/{id}/activities [get]
func (h *LeadHandler) Activities(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.leads.ListActivities(c.Request.Context(), id, queryInt(c, "limit", 50), actor)
	if err != nil {
		respondError(c, "lead.activities", err)
		return
	}
	if list == nil {
		list = []models.Activity{}
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Карточка лида в PDF
// @Tags         Leads
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  int  true  "ID лида"
// @Success      200  {file}  file
// @Router       /leads/{id}/card.pdf [get]
func (h *LeadHandler) CardPDF(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	lead, err := h.leads.GetLead(ctx, id, actor)
	if err != nil {
		respondError(c, "lead.card", err)
		return
	}
	tasks, err := h.tasks.ListByLead(ctx, id, actor)
	if err != nil {
		respondError(c, "lead.card", err)
		return
	}
	activities, err := h.leads.ListActivities(ctx, id, 15, actor)
	if err != nil {
		respondError(c, "lead.card", err)
		return
	}
	card := pdf.LeadCard{Lead: lead, Tasks: tasks, Activities: activities}
	if lead.AssignedAdminID != nil && h.admins != nil {
		if a, err := h.admins.GetByID(ctx, *lead.AssignedAdminID); err == nil {
			card.AssigneeEmail = a.Email
		} else {
			logrus.WithField("lead_id", id).WithError(err).Warn("[lead][card] assignee lookup failed")
		}
	}

	var buf bytes.Buffer
	if err := h.cards.Render(&buf, card); err != nil {
		respondError(c, "lead.card", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="lead_%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
