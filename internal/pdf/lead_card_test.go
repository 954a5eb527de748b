package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodealer/internal/models"
)

func TestRender_WritesPDF(t *testing.T) {
	due := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	card := LeadCard{
		Lead: &models.Lead{
			ID: 11, Name: "John Smith", Phone: "+77010000000", Source: models.SourcePhone,
			Status: models.LeadStatusInProgress, Priority: models.PriorityHigh,
			PipelineStage: models.StageNegotiation, Score: 80,
		},
		AssigneeEmail: "manager@dealer.kz",
		Tasks: []models.LeadTask{
			{Title: "Send contract", DueDate: &due},
			{Title: "Call back", Completed: true},
		},
		Activities: []models.Activity{
			{ActivityType: models.ActivityPriorityChanged, Field: "priority", OldValue: "normal", NewValue: "high"},
			{ActivityType: models.ActivityCreated, Description: "created"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewCardGenerator("").Render(&buf, card))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestRender_NeedsLead(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, NewCardGenerator("").Render(&buf, LeadCard{}))
}

func TestRender_MissingFontFails(t *testing.T) {
	var buf bytes.Buffer
	err := NewCardGenerator("/nonexistent/DejaVuSans.ttf").Render(&buf, LeadCard{Lead: &models.Lead{ID: 1, Name: "x"}})
	assert.Error(t, err)
}
