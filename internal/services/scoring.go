package services

import "autodealer/internal/models"

const maxLeadScore = 100

var sourceBaseScore = map[models.LeadSource]int{
	models.SourceChat:     10,
	models.SourceTelegram: 15,
	models.SourcePhone:    20,
	models.SourceEmail:    15,
	models.SourceOther:    5,
}

var priorityBonus = map[models.LeadPriority]int{
	models.PriorityLow:    5,
	models.PriorityNormal: 10,
	models.PriorityHigh:   20,
	models.PriorityUrgent: 30,
}

// ScoreFacts are the related-record counts that feed the score.
type ScoreFacts struct {
	Comments int
	Tasks    int
	Meetings int
}

// ComputeScore rates lead quality on 0..100. It only looks at its
// arguments, so equal inputs always give equal scores.
func ComputeScore(lead *models.Lead, facts ScoreFacts) int {
	score := sourceBaseScore[lead.Source]

	if lead.Email != "" {
		score += 10
	}
	if lead.Phone != "" {
		score += 15
	}
	if lead.HasTelegramContact {
		score += 5
	}

	score += priorityBonus[lead.Priority]

	if lead.AssignedAdminID != nil {
		score += 10
	}
	if facts.Comments > 0 {
		score += 5
	}
	if facts.Tasks > 0 {
		score += 10
	}
	if facts.Meetings > 0 {
		score += 15
	}

	if score > maxLeadScore {
		score = maxLeadScore
	}
	return score
}
