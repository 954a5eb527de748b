package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"autodealer/internal/models"
)

func TestComputeScore_PhoneUrgentUnassigned(t *testing.T) {
	lead := &models.Lead{Source: models.SourcePhone, Phone: "+77011234567", Priority: models.PriorityUrgent}
	assert.Equal(t, 65, ComputeScore(lead, ScoreFacts{}))
}

func TestComputeScore_Components(t *testing.T) {
	admin := int64(3)
	tests := []struct {
		name  string
		lead  models.Lead
		facts ScoreFacts
		want  int
	}{
		{"bare chat lead", models.Lead{Source: models.SourceChat, Priority: models.PriorityLow}, ScoreFacts{}, 15},
		{"email adds ten", models.Lead{Source: models.SourceEmail, Email: "a@b.kz", Priority: models.PriorityNormal}, ScoreFacts{}, 35},
		{"telegram contact", models.Lead{Source: models.SourceTelegram, HasTelegramContact: true, Priority: models.PriorityNormal}, ScoreFacts{}, 30},
		{"assigned", models.Lead{Source: models.SourceOther, Priority: models.PriorityLow, AssignedAdminID: &admin}, ScoreFacts{}, 20},
		{"activity facts", models.Lead{Source: models.SourceOther, Priority: models.PriorityLow}, ScoreFacts{Comments: 2, Tasks: 1, Meetings: 4}, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeScore(&tt.lead, tt.facts))
		})
	}
}

func TestComputeScore_ClampedAt100(t *testing.T) {
	admin := int64(1)
	lead := &models.Lead{
		Source:             models.SourcePhone,
		Email:              "x@y.kz",
		Phone:              "+7",
		HasTelegramContact: true,
		Priority:           models.PriorityUrgent,
		AssignedAdminID:    &admin,
	}
	// 20+10+15+5+30+10+5+10+15 = 120
	assert.Equal(t, 100, ComputeScore(lead, ScoreFacts{Comments: 1, Tasks: 1, Meetings: 1}))
}

func TestComputeScore_Deterministic(t *testing.T) {
	lead := &models.Lead{Source: models.SourceTelegram, Email: "e@x.kz", Priority: models.PriorityHigh}
	facts := ScoreFacts{Comments: 3}
	first := ComputeScore(lead, facts)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ComputeScore(lead, facts))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.LessOrEqual(t, first, 100)
}
