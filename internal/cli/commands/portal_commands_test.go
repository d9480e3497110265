package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatime/portal/internal/cli/config"
)

func TestDoctorDashboard(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})
	loginAsDoctor(t)

	stdout, _, err := execute(t, NewDoctorCmd(), "dashboard")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Patients:            12")
	assert.Contains(t, stdout, "Karim Haddad")
}

func TestDoctorDashboard_NotSignedInGivesLoginHint(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})

	_, stderr, err := execute(t, NewDoctorCmd(), "dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curatime login --role doctor")
	assert.Empty(t, stderr, "a 401 without message is not printed")
}

func TestAppointmentsList_NotSignedInGivesClientLoginHint(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})

	_, _, err := execute(t, NewAppointmentsCmd(), "ls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curatime login --role client")
}

func TestDoctorUpdate(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})
	loginAsDoctor(t)

	_, _, err := execute(t, NewDoctorCmd(), "update")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")

	_, _, err = execute(t, NewDoctorCmd(), "update", "--password", "short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid input")

	stdout, _, err := execute(t, NewDoctorCmd(), "update", "--city", "Oran", "--fee", "2500")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Profile updated")
	assert.Contains(t, stdout, "Fee:     2500.00")
}

func TestAppointmentsBook_ServerMessageIsPrinted(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})
	loginAsDoctor(t)

	_, stderr, err := execute(t, NewAppointmentsCmd(), "book", "7", "2099-01-05 10:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, stderr, "✗ Créneau indisponible")
}

func TestAppointmentsBook_InvalidArguments(t *testing.T) {
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: "http://127.0.0.1:1"}})

	_, _, err := execute(t, NewAppointmentsCmd(), "book", "x", "2099-01-05 10:00")
	assert.ErrorContains(t, err, "invalid doctor id")

	_, _, err = execute(t, NewAppointmentsCmd(), "book", "7", "next tuesday")
	assert.ErrorContains(t, err, "invalid date")

	_, _, err = execute(t, NewAppointmentsCmd(), "book", "7", "2001-01-05 10:00")
	assert.ErrorContains(t, err, "must be in the future")
}

func TestAdminDashboard_ActivityFailureKeepsCounters(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})
	loginAsDoctor(t)

	stdout, stderr, err := execute(t, NewAdminCmd(), "dashboard")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Doctors:")
	assert.Contains(t, stdout, "30")
	assert.Contains(t, stderr, "✗ Une erreur est survenue")
	assert.Contains(t, stderr, "Warning:")
}

func TestRequestCommand(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})

	// Public page: a 401 is neither redirected nor printed.
	_, stderr, err := execute(t, NewRequestCmd(), "GET", "/specialties/")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "curatime login")
	assert.Empty(t, stderr)

	_, _, err = execute(t, NewRequestCmd(), "GET", "/specialties/", "--page", "/admin/specialties")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "curatime login --role admin")

	loginAsDoctor(t)

	stdout, _, err := execute(t, NewRequestCmd(), "get", "/specialties/")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"name": "Cardiologie"`)

	_, _, err = execute(t, NewRequestCmd(), "POST", "/appointments/create/", "--data", "{not json")
	assert.ErrorContains(t, err, "not valid JSON")

	_, _, err = execute(t, NewRequestCmd(), "TRACE", "/")
	assert.ErrorContains(t, err, "unsupported method")
}

func TestOpenCommand_PrintsRoleHome(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL, PortalURL: "http://portal.test"}})

	stdout, _, err := execute(t, NewOpenCmd(), "--print")
	require.NoError(t, err)
	assert.Contains(t, stdout, "URL: http://portal.test/login")

	loginAsDoctor(t)

	stdout, _, err = execute(t, NewOpenCmd(), "--print")
	require.NoError(t, err)
	assert.Contains(t, stdout, "URL: http://portal.test/doctor/dashboard")
}

func TestOpenCommand_NoPortalURL(t *testing.T) {
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: "http://127.0.0.1:1"}})

	_, _, err := execute(t, NewOpenCmd(), "--print")
	assert.ErrorContains(t, err, "no portal_url")
}
