package services

import "autodealer/internal/models"

// stageOrder is the funnel from first touch to a won deal. Lost sits
// outside it and is only set by hand.
var stageOrder = []models.PipelineStage{
	models.StageNewLead,
	models.StageFirstContact,
	models.StageQualification,
	models.StageNeedsAnalysis,
	models.StagePresentation,
	models.StageNegotiation,
	models.StageDealClosing,
	models.StageWon,
}

var stageOrdinal = func() map[models.PipelineStage]int {
	m := make(map[models.PipelineStage]int, len(stageOrder))
	for i, s := range stageOrder {
		m[s] = i
	}
	return m
}()

// stageUnlockedBy maps a completed task type to the stage it moves the lead
// into.
var stageUnlockedBy = map[models.TaskType]models.PipelineStage{
	models.TaskTypeFirstContact:    models.StageQualification,
	models.TaskTypeQualifyLead:     models.StageNeedsAnalysis,
	models.TaskTypeCarPreferences:  models.StagePresentation,
	models.TaskTypeSendOffers:      models.StageNegotiation,
	models.TaskTypeSendCalculation: models.StageNegotiation,
	models.TaskTypeScheduleMeeting: models.StageDealClosing,
	models.TaskTypeSendContract:    models.StageDealClosing,
	models.TaskTypeGetPrepayment:   models.StageDealClosing,
	models.TaskTypeConfirmDeal:     models.StageWon,
}

// StageOrdinal returns the stage's position in the funnel, or -1 for lost
// and unknown values.
func StageOrdinal(s models.PipelineStage) int {
	if i, ok := stageOrdinal[s]; ok {
		return i
	}
	return -1
}

func IsValidStage(s models.PipelineStage) bool {
	return s == models.StageLost || StageOrdinal(s) >= 0
}

// IsTerminalStage reports whether the lead left the funnel.
func IsTerminalStage(s models.PipelineStage) bool {
	return s == models.StageWon || s == models.StageLost
}

// NextStage reports the stage a lead at current moves to when a task of
// type completed is finished. The move only happens forward; lost leads
// and unmapped task types stay put.
func NextStage(current models.PipelineStage, completed models.TaskType) (models.PipelineStage, bool) {
	target, ok := stageUnlockedBy[completed]
	if !ok {
		return current, false
	}
	from := StageOrdinal(current)
	if from < 0 {
		return current, false
	}
	if StageOrdinal(target) <= from {
		return current, false
	}
	return target, true
}

// AdvanceOnTaskCompletion applies NextStage to the lead in place.
func AdvanceOnTaskCompletion(lead *models.Lead, completed models.TaskType) bool {
	next, ok := NextStage(lead.PipelineStage, completed)
	if ok {
		lead.PipelineStage = next
	}
	return ok
}
