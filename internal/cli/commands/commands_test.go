package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/curatime/portal/internal/cli/config"
)

const accessToken = "doctor-access-token"

// setupTestEnvironment creates a project directory holding curatime.json
// with envs, a fresh HOME and an in-memory keychain.
func setupTestEnvironment(t *testing.T, envs []config.Environment) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, config.Save(filepath.Join(dir, config.ConfigFileName), &config.Config{Environments: envs}))

	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CURATIME_ROLE", "")
	t.Setenv("CURATIME_EMAIL", "")
	t.Setenv("CURATIME_PASSWORD", "")
	keyring.MockInit()

	interactive := isInteractive
	isInteractive = func() bool { return false }
	t.Cleanup(func() { isInteractive = interactive })

	return dir
}

// mockAPIServer stands in for the CuraTime API. Only accessToken is accepted.
func mockAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodPost && r.URL.Path == "/doctor/login/" {
			var body struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if body.Email != "amina@example.com" || body.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"error":"Identifiants invalides"}`)
				return
			}
			io.WriteString(w, `{"access":"`+accessToken+`","refresh":"r","doctor_id":7,"first_name":"Amina","last_name":"Benali","email":"amina@example.com"}`)
			return
		}

		if r.Header.Get("Authorization") != "Bearer "+accessToken {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Authentication credentials were not provided."}`)
			return
		}

		switch r.Method + " " + r.URL.Path {
		case "GET /doctors/dashboard/stats/":
			io.WriteString(w, `{"totalPatients":12,"todayAppointments":3,"weekAppointments":9,"completedAppointments":40}`)
		case "GET /doctors/appointments/recent/":
			io.WriteString(w, `{"results":[{"id":5,"client_name":"Karim Haddad","date_time":"2026-10-20T09:00:00Z","status":"pending"}]}`)
		case "PATCH /doctors/me/":
			io.WriteString(w, `{"user":{"first_name":"Amina","last_name":"Benali","email":"amina@example.com"},"doctor":{"city":"Oran","consultation_fee":"2500.00"}}`)
		case "GET /specialties/":
			io.WriteString(w, `[{"id":1,"name":"Cardiologie"}]`)
		case "POST /appointments/create/":
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"message":"Créneau indisponible"}`)
		case "GET /admin/dashboard/stats/":
			io.WriteString(w, `{"totalDoctors":4,"totalPatients":30,"totalAppointments":80,"todayAppointments":2}`)
		case "GET /admin/dashboard/activities/":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// execute runs cmd with args and returns what it printed.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// loginAsDoctor signs in against srv and fails the test on error.
func loginAsDoctor(t *testing.T) {
	t.Helper()
	_, _, err := execute(t, NewLoginCmd(), "--role", "doctor", "--email", "amina@example.com", "--password", "secret")
	require.NoError(t, err)
}
