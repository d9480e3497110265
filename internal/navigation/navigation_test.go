package navigation

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/curatime/portal/internal/apiclient"
)

func TestLoginRoute(t *testing.T) {
	tests := []struct {
		path      string
		expected  string
		protected bool
	}{
		{path: "/admin", expected: AdminLogin, protected: true},
		{path: "/admin/x", expected: AdminLogin, protected: true},
		{path: "/admin/doctors/12", expected: AdminLogin, protected: true},
		{path: "/doctor/x", expected: DoctorLogin, protected: true},
		{path: "/doctor/dashboard", expected: DoctorLogin, protected: true},
		{path: "/dashboard/x", expected: Login, protected: true},
		{path: "/appointments/x", expected: Login, protected: true},
		{path: "/profile/x", expected: Login, protected: true},
		{path: "/profile", expected: Login, protected: true},
		{path: "/doctor/dashboard?tab=today", expected: DoctorLogin, protected: true},
		{path: "doctor/profile", expected: DoctorLogin, protected: true},
		{path: "/", protected: false},
		{path: "", protected: false},
		{path: "/login", protected: false},
		{path: "/doctors", protected: false},
		{path: "/doctors/12", protected: false},
		{path: "/administration", protected: false},
		{path: "/specialties/3", protected: false},
		{path: "/about#team", protected: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			route, ok := LoginRoute(tt.path)
			assert.Equal(t, tt.protected, ok)
			assert.Equal(t, tt.expected, route)
			assert.Equal(t, tt.protected, IsProtected(tt.path))
		})
	}
}

func TestGuardRedirect(t *testing.T) {
	unauthenticated := &apiclient.Error{Method: http.MethodGet, Path: "/doctors/dashboard/stats/", StatusCode: http.StatusUnauthorized}
	forbidden := &apiclient.Error{Method: http.MethodGet, Path: "/admin/doctors/", StatusCode: http.StatusForbidden}
	guard := Guard{}

	for _, prefix := range ProtectedPrefixes() {
		route, ok := guard.Redirect(prefix+"/x", unauthenticated)
		assert.True(t, ok, prefix)
		assert.NotEmpty(t, route, prefix)
	}

	route, ok := guard.Redirect("/doctor/dashboard", fmt.Errorf("loading dashboard: %w", unauthenticated))
	assert.True(t, ok)
	assert.Equal(t, DoctorLogin, route)

	_, ok = guard.Redirect("/", unauthenticated)
	assert.False(t, ok, "public pages never redirect")

	_, ok = guard.Redirect("/admin/dashboard", forbidden)
	assert.False(t, ok, "only 401 redirects")

	_, ok = guard.Redirect("/admin/dashboard", errors.New("boom"))
	assert.False(t, ok)

	_, ok = guard.Redirect("/admin/dashboard", nil)
	assert.False(t, ok)
}

func TestRoleLoginMapping(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleDoctor, RoleClient} {
		assert.Equal(t, role, RoleForLogin(LoginForRole(role)))
	}
	assert.Equal(t, Login, LoginForRole("unknown"))
}
