package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"autodealer/internal/models"
)

type adminLister interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Admin, error)
}

type activeLoadCounter interface {
	CountActiveByAdmin(ctx context.Context, adminID int64) (int, error)
}

// AssignmentBalancer picks the least loaded admin of a project for a new
// lead.
//
// Load is recounted from the database on every call and nothing is locked,
// so two leads created at the same instant can land on the same admin.
type AssignmentBalancer struct {
	admins adminLister
	leads  activeLoadCounter
}

func NewAssignmentBalancer(admins adminLister, leads activeLoadCounter) *AssignmentBalancer {
	return &AssignmentBalancer{admins: admins, leads: leads}
}

// AssignAdmin returns nil when the project has no admin able to manage
// leads. Ties go to the admin listed first.
func (b *AssignmentBalancer) AssignAdmin(ctx context.Context, projectID string) (*int64, error) {
	admins, err := b.admins.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var (
		best     *int64
		bestLoad int
	)
	for i := range admins {
		a := &admins[i]
		if !a.ManagesLeads() {
			continue
		}
		load, err := b.leads.CountActiveByAdmin(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if best == nil || load < bestLoad {
			id := a.ID
			best, bestLoad = &id, load
		}
	}

	if best == nil {
		logrus.WithField("project_id", projectID).Info("[lead][assign] no eligible admin, lead stays unassigned")
		return nil, nil
	}
	logrus.WithFields(logrus.Fields{"project_id": projectID, "admin_id": *best, "load": bestLoad}).
		Debug("[lead][assign] picked admin")
	return best, nil
}
