package authz

import "autodealer/internal/models"

// ContextKey is the gin context key the auth middleware stores the Actor under.
const ContextKey = "actor"

// Actor is the admin on whose behalf a lead operation runs. It is passed
// explicitly to every service call.
type Actor struct {
	AdminID   int64
	ProjectID string
	IsSuper   bool
	Admin     *models.Admin
}

// System is used for automated calls that have no acting admin. Any other
// actor without a loaded Admin is denied.
var System = Actor{IsSuper: true}

func FromAdmin(a *models.Admin) Actor {
	return Actor{AdminID: a.ID, ProjectID: a.ProjectID, IsSuper: a.IsSuper, Admin: a}
}

// AdminRef returns the acting admin id, or nil for System.
func (a Actor) AdminRef() *int64 {
	if a.AdminID == 0 {
		return nil
	}
	id := a.AdminID
	return &id
}

// CanSeeProject: super admins see every office, others only their own.
func (a Actor) CanSeeProject(projectID string) bool {
	return a.IsSuper || a.ProjectID == projectID
}

func (a Actor) CanViewLeads() bool {
	if a.IsSuper {
		return true
	}
	return a.Admin != nil && a.Admin.ViewsLeads()
}

func (a Actor) CanManageLeads() bool {
	if a.IsSuper {
		return true
	}
	return a.Admin != nil && a.Admin.ManagesLeads()
}

// ScopeProject returns the project filter for listings: empty for super
// admins (all offices), the actor's own project otherwise.
func (a Actor) ScopeProject() string {
	if a.IsSuper {
		return ""
	}
	return a.ProjectID
}
