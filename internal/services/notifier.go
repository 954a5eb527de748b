package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"autodealer/internal/models"
)

// Notifier tells an admin about lead events. Implementations must be safe
// to call with an admin that has no contact configured.
type Notifier interface {
	LeadAssigned(ctx context.Context, admin *models.Admin, lead *models.Lead) error
	TasksCreated(ctx context.Context, admin *models.Admin, lead *models.Lead, tasks []models.LeadTask) error
}

// MultiNotifier fans out to every configured channel. One failing channel
// does not stop the others.
type MultiNotifier []Notifier

func (m MultiNotifier) LeadAssigned(ctx context.Context, admin *models.Admin, lead *models.Lead) error {
	for _, n := range m {
		if err := n.LeadAssigned(ctx, admin, lead); err != nil {
			logrus.WithFields(logrus.Fields{"lead_id": lead.ID, "admin_id": admin.ID}).
				WithError(err).Warn("[notify][assigned] channel failed")
		}
	}
	return nil
}

func (m MultiNotifier) TasksCreated(ctx context.Context, admin *models.Admin, lead *models.Lead, tasks []models.LeadTask) error {
	for _, n := range m {
		if err := n.TasksCreated(ctx, admin, lead, tasks); err != nil {
			logrus.WithFields(logrus.Fields{"lead_id": lead.ID, "admin_id": admin.ID}).
				WithError(err).Warn("[notify][tasks] channel failed")
		}
	}
	return nil
}

type noopNotifier struct{}

func (noopNotifier) LeadAssigned(context.Context, *models.Admin, *models.Lead) error { return nil }
func (noopNotifier) TasksCreated(context.Context, *models.Admin, *models.Lead, []models.LeadTask) error {
	return nil
}
