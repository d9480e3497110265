package auth

import (
	"time"

	"github.com/curatime/portal/internal/navigation"
)

// Identity is the signed-in user as known to the portal.
type Identity struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Role      string    `json:"role"`
	DoctorID  string    `json:"doctor_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Expired reports whether the access token has passed its expiry at now.
// Tokens without an expiry never expire on the portal side.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// HomeRoute returns the landing page of i's role.
func (i *Identity) HomeRoute() string {
	return HomeRoute(i.Role)
}

// HomeRoute returns the landing page for role.
func HomeRoute(role string) string {
	switch role {
	case navigation.RoleAdmin:
		return "/admin/dashboard"
	case navigation.RoleDoctor:
		return "/doctor/dashboard"
	default:
		return "/dashboard"
	}
}

// storedUser is the JSON kept under session.KeyUser.
type storedUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	DoctorID  string `json:"doctor_id,omitempty"`
}
