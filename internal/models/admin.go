package models

import "time"

const (
	ProjectOffice1 = "office_1"
	ProjectOffice2 = "office_2"
)

// AdminPermissions mirrors the JSON capability set stored per admin. A nil
// flag means the capability was never configured.
type AdminPermissions struct {
	CanAddCars     *bool `json:"canAddCars,omitempty"`
	CanViewCars    *bool `json:"canViewCars,omitempty"`
	CanManageLeads *bool `json:"canManageLeads,omitempty"`
	CanViewLeads   *bool `json:"canViewLeads,omitempty"`
}

type Admin struct {
	ID             int64            `json:"id"`
	Email          string           `json:"email"`
	PasswordHash   string           `json:"-"`
	IsSuper        bool             `json:"is_super"`
	ProjectID      string           `json:"project_id"`
	Permissions    AdminPermissions `json:"permissions"`
	TelegramChatID int64            `json:"-"`
	NotifyTelegram bool             `json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
	DeletedAt      *time.Time       `json:"-"`
}

// ManagesLeads treats an absent flag as granted; only an explicit false
// takes the admin out of lead work.
func (a *Admin) ManagesLeads() bool {
	return a.Permissions.CanManageLeads == nil || *a.Permissions.CanManageLeads
}

// ViewsLeads follows the same rule as ManagesLeads. Managing implies viewing.
func (a *Admin) ViewsLeads() bool {
	if a.ManagesLeads() {
		return true
	}
	return a.Permissions.CanViewLeads == nil || *a.Permissions.CanViewLeads
}
