package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autodealer/internal/models"
	"autodealer/internal/services"
)

type LeadTaskHandler struct {
	tasks services.LeadTaskService
	leads LeadOperations
}

func NewLeadTaskHandler(tasks services.LeadTaskService, leads LeadOperations) *LeadTaskHandler {
	return &LeadTaskHandler{tasks: tasks, leads: leads}
}

// POST /leads/:id/tasks
func (h *LeadTaskHandler) Create(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.CreateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), leadID, in, actor)
	if err != nil {
		respondError(c, "task.create", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// GET /leads/:id/tasks
func (h *LeadTaskHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	tasks, err := h.tasks.ListByLead(c.Request.Context(), leadID, actor)
	if err != nil {
		respondError(c, "task.list", err)
		return
	}
	if tasks == nil {
		tasks = []models.LeadTask{}
	}
	c.JSON(http.StatusOK, tasks)
}

// PUT /leads/tasks/:taskId
func (h *LeadTaskHandler) Update(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	var in services.UpdateTaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.tasks.Update(c.Request.Context(), taskID, in, actor)
	if err != nil {
		respondError(c, "task.update", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DELETE /leads/tasks/:taskId
func (h *LeadTaskHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), taskID, actor); err != nil {
		respondError(c, "task.delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /leads/tasks/:taskId/complete
func (h *LeadTaskHandler) Complete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskId")
	if !ok {
		return
	}
	task, err := h.leads.CompleteTask(c.Request.Context(), taskID, actor)
	if err != nil {
		respondError(c, "task.complete", err)
		return
	}
	c.JSON(http.StatusOK, task)
}
