// Package navigation classifies portal pages as protected or public and
// decides where an unauthenticated user on a protected page must be sent.
package navigation

import (
	"errors"
	"strings"

	"github.com/curatime/portal/internal/apiclient"
)

// Login routes.
const (
	AdminLogin  = "/admin/login"
	DoctorLogin = "/doctor/login"
	Login       = "/login"
)

type area struct {
	prefix string
	login  string
}

// Protected areas. The API's own route protection uses the same split, so a
// page listed here is one whose data requires a session.
var protectedAreas = []area{
	{prefix: "/admin", login: AdminLogin},
	{prefix: "/doctor", login: DoctorLogin},
	{prefix: "/dashboard", login: Login},
	{prefix: "/appointments", login: Login},
	{prefix: "/profile", login: Login},
}

// ProtectedPrefixes returns the protected path prefixes.
func ProtectedPrefixes() []string {
	prefixes := make([]string, len(protectedAreas))
	for i, a := range protectedAreas {
		prefixes[i] = a.prefix
	}
	return prefixes
}

// matchArea returns the longest protected prefix of path. A prefix only
// matches on a segment boundary: "/doctor" covers "/doctor/x" but not
// "/doctors".
func matchArea(path string) (area, bool) {
	path = normalize(path)

	var (
		best  area
		found bool
	)
	for _, a := range protectedAreas {
		if path != a.prefix && !strings.HasPrefix(path, a.prefix+"/") {
			continue
		}
		if !found || len(a.prefix) > len(best.prefix) {
			best, found = a, true
		}
	}
	return best, found
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return path
}

// IsProtected reports whether path requires an active session.
func IsProtected(path string) bool {
	_, ok := matchArea(path)
	return ok
}

// LoginRoute returns the login page for the protected area path belongs to.
// ok is false for public paths.
func LoginRoute(path string) (route string, ok bool) {
	a, ok := matchArea(path)
	if !ok {
		return "", false
	}
	return a.login, true
}

// Role names used by the API for each login route.
const (
	RoleClient = "client"
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

// RoleForLogin maps a login route to the role that signs in there.
func RoleForLogin(route string) string {
	switch route {
	case AdminLogin:
		return RoleAdmin
	case DoctorLogin:
		return RoleDoctor
	default:
		return RoleClient
	}
}

// LoginForRole is the inverse of RoleForLogin.
func LoginForRole(role string) string {
	switch role {
	case RoleAdmin:
		return AdminLogin
	case RoleDoctor:
		return DoctorLogin
	default:
		return Login
	}
}

// Guard interprets API errors for the page the user is on.
type Guard struct{}

// Redirect returns the login route to navigate to when err is an
// unauthenticated API error raised while on a protected page. For public
// pages and every other error it returns ok == false.
func (Guard) Redirect(currentPath string, err error) (route string, ok bool) {
	if err == nil || !errors.Is(err, apiclient.ErrUnauthenticated) {
		return "", false
	}
	return LoginRoute(currentPath)
}
