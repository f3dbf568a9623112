package services

import "wifisub_app/internal/models"

// Actor is the authenticated caller of a service operation
type Actor struct {
	ID   string
	Role models.UserRole

	// Profile claims from the token, used to register first-time callers
	Name  string
	Email string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.UserRoleAdmin
}

// CanAccess reports whether the actor may view or change a resource owned by ownerID
func (a Actor) CanAccess(ownerID string) bool {
	return a.IsAdmin() || a.ID == ownerID
}
