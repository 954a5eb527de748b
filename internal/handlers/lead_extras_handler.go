package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autodealer/internal/models"
	"autodealer/internal/services"
)

type LeadExtrasHandler struct {
	extras *services.LeadExtrasService
}

func NewLeadExtrasHandler(extras *services.LeadExtrasService) *LeadExtrasHandler {
	return &LeadExtrasHandler{extras: extras}
}

// ---- comments ----

type commentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

// POST /leads/:id/comments
func (h *LeadExtrasHandler) AddComment(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	comment, err := h.extras.AddComment(c.Request.Context(), leadID, req.Comment, actor)
	if err != nil {
		respondError(c, "comment.create", err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GET /leads/:id/comments
func (h *LeadExtrasHandler) ListComments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.extras.ListComments(c.Request.Context(), leadID, actor)
	if err != nil {
		respondError(c, "comment.list", err)
		return
	}
	if list == nil {
		list = []models.LeadComment{}
	}
	c.JSON(http.StatusOK, list)
}

// DELETE /leads/comments/:commentId
func (h *LeadExtrasHandler) DeleteComment(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "commentId")
	if !ok {
		return
	}
	if err := h.extras.DeleteComment(c.Request.Context(), id, actor); err != nil {
		respondError(c, "comment.delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- tags ----

type tagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

// GET /leads/tags/all
func (h *LeadExtrasHandler) ListTags(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	tags, err := h.extras.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, "tag.list", err)
		return
	}
	if tags == nil {
		tags = []models.LeadTag{}
	}
	c.JSON(http.StatusOK, tags)
}

// POST /leads/tags
func (h *LeadExtrasHandler) CreateTag(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := h.extras.CreateTag(c.Request.Context(), req.Name, req.Color, actor)
	if err != nil {
		respondError(c, "tag.create", err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

// GET /leads/:id/tags
func (h *LeadExtrasHandler) ListLeadTags(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	tags, err := h.extras.ListLeadTags(c.Request.Context(), leadID, actor)
	if err != nil {
		respondError(c, "tag.list_lead", err)
		return
	}
	if tags == nil {
		tags = []models.LeadTag{}
	}
	c.JSON(http.StatusOK, tags)
}

// POST /leads/:id/tags/:tagId
func (h *LeadExtrasHandler) AddTag(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	tagID, ok := paramID(c, "tagId")
	if !ok {
		return
	}
	if err := h.extras.AddTag(c.Request.Context(), leadID, tagID, actor); err != nil {
		respondError(c, "tag.attach", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /leads/:id/tags/:tagId
func (h *LeadExtrasHandler) RemoveTag(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	tagID, ok := paramID(c, "tagId")
	if !ok {
		return
	}
	if err := h.extras.RemoveTag(c.Request.Context(), leadID, tagID, actor); err != nil {
		respondError(c, "tag.detach", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- meetings ----

// POST /leads/:id/meetings
func (h *LeadExtrasHandler) ScheduleMeeting(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.MeetingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.extras.ScheduleMeeting(c.Request.Context(), leadID, in, actor)
	if err != nil {
		respondError(c, "meeting.create", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GET /leads/:id/meetings
func (h *LeadExtrasHandler) ListMeetings(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.extras.ListMeetings(c.Request.Context(), leadID, actor)
	if err != nil {
		respondError(c, "meeting.list", err)
		return
	}
	if list == nil {
		list = []models.LeadMeeting{}
	}
	c.JSON(http.StatusOK, list)
}

// PUT /leads/meetings/:meetingId
func (h *LeadExtrasHandler) UpdateMeeting(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "meetingId")
	if !ok {
		return
	}
	var in services.MeetingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.extras.UpdateMeeting(c.Request.Context(), id, in, actor)
	if err != nil {
		respondError(c, "meeting.update", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DELETE /leads/meetings/:meetingId
func (h *LeadExtrasHandler) DeleteMeeting(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "meetingId")
	if !ok {
		return
	}
	if err := h.extras.DeleteMeeting(c.Request.Context(), id, actor); err != nil {
		respondError(c, "meeting.delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- attachments ----

// POST /leads/:id/attachments
func (h *LeadExtrasHandler) AddAttachment(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.AttachmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.extras.AddAttachment(c.Request.Context(), leadID, in, actor)
	if err != nil {
		respondError(c, "attachment.create", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// GET /leads/:id/attachments
func (h *LeadExtrasHandler) ListAttachments(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	leadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.extras.ListAttachments(c.Request.Context(), leadID, actor)
	if err != nil {
		respondError(c, "attachment.list", err)
		return
	}
	if list == nil {
		list = []models.LeadAttachment{}
	}
	c.JSON(http.StatusOK, list)
}

// DELETE /leads/attachments/:attachmentId
func (h *LeadExtrasHandler) DeleteAttachment(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "attachmentId")
	if !ok {
		return
	}
	if err := h.extras.DeleteAttachment(c.Request.Context(), id, actor); err != nil {
		respondError(c, "attachment.delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}
