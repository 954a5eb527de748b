package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"autodealer/internal/models"
	"autodealer/internal/repositories"
)

// ActivityPublisher receives every activity after it is stored. The
// realtime feed implements it.
type ActivityPublisher interface {
	PublishActivity(projectID string, activity models.Activity)
}

// ActivityLog appends audit entries. Writes are best effort: a failed
// insert is logged and never surfaces to the caller.
type ActivityLog struct {
	repo      repositories.ActivityRepository
	publisher ActivityPublisher
}

func NewActivityLog(repo repositories.ActivityRepository, publisher ActivityPublisher) *ActivityLog {
	return &ActivityLog{repo: repo, publisher: publisher}
}

func (l *ActivityLog) Record(ctx context.Context, lead *models.Lead, a models.Activity) {
	a.LeadID = lead.ID
	if err := l.repo.Create(ctx, &a); err != nil {
		logrus.WithFields(logrus.Fields{
			"lead_id": lead.ID,
			"type":    a.ActivityType,
		}).WithError(err).Warn("[activity][create] failed")
		return
	}
	if l.publisher != nil {
		l.publisher.PublishActivity(lead.ProjectID, a)
	}
}

func (l *ActivityLog) List(ctx context.Context, leadID int64, limit int) ([]models.Activity, error) {
	return l.repo.ListByLead(ctx, leadID, limit)
}
