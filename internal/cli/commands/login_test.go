package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatime/portal/internal/cli/auth"
	"github.com/curatime/portal/internal/cli/config"
	"github.com/curatime/portal/internal/cli/userconfig"
	"github.com/curatime/portal/internal/session"
)

func TestLoginCommand_SuccessfulLogin(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})

	stdout, _, err := execute(t, NewLoginCmd(), "--role", "doctor", "--email", "amina@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Login successful!")
	assert.Contains(t, stdout, "Amina Benali")
	assert.Contains(t, stdout, "Role: doctor")

	token, err := session.ResolveToken(context.Background(), auth.Default(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, accessToken, token)

	userCfg, err := userconfig.Load()
	require.NoError(t, err)
	assert.Equal(t, "doctor", userCfg.LastRole)
	assert.Equal(t, srv.URL, userCfg.SelectedEnvironment)
}

func TestLoginCommand_EnvironmentVariables(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})
	t.Setenv("CURATIME_ROLE", "doctor")
	t.Setenv("CURATIME_EMAIL", "amina@example.com")
	t.Setenv("CURATIME_PASSWORD", "secret")

	stdout, _, err := execute(t, NewLoginCmd())
	require.NoError(t, err)
	assert.Contains(t, stdout, "Login successful")
}

func TestLoginCommand_MissingEmail(t *testing.T) {
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: "http://127.0.0.1:1"}})

	_, _, err := execute(t, NewLoginCmd(), "--role", "doctor", "--password", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")
}

func TestLoginCommand_NonInteractiveNeedsRoleAndPassword(t *testing.T) {
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: "http://127.0.0.1:1"}})

	_, _, err := execute(t, NewLoginCmd(), "--email", "amina@example.com", "--password", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role is required")

	_, _, err = execute(t, NewLoginCmd(), "--role", "doctor", "--email", "amina@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password is required")
}

func TestLoginCommand_RemembersLastRole(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})
	require.NoError(t, userconfig.SetLastRole("doctor"))

	_, _, err := execute(t, NewLoginCmd(), "--email", "amina@example.com", "--password", "secret")
	require.NoError(t, err)
}

func TestLoginCommand_InvalidCredentials(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})

	_, stderr, err := execute(t, NewLoginCmd(), "--role", "doctor", "--email", "amina@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	assert.Contains(t, stderr, "✗ Identifiants invalides")

	token, err := session.ResolveToken(context.Background(), auth.Default(srv.URL))
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLoginCommand_InvalidRole(t *testing.T) {
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: "http://127.0.0.1:1"}})

	_, _, err := execute(t, NewLoginCmd(), "--role", "nurse", "--email", "amina@example.com", "--password", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid login request")
}

func TestWhoamiAndLogout(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})

	_, _, err := execute(t, NewWhoamiCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")

	loginAsDoctor(t)

	stdout, _, err := execute(t, NewWhoamiCmd())
	require.NoError(t, err)
	assert.Contains(t, stdout, "Amina Benali <amina@example.com>")
	assert.Contains(t, stdout, "Role:        doctor")

	stdout, _, err = execute(t, NewLogoutCmd())
	require.NoError(t, err)
	assert.Contains(t, stdout, "Signed out of test")

	_, _, err = execute(t, NewWhoamiCmd())
	assert.Error(t, err)
}

func TestWhoami_LegacyTokenIsPromoted(t *testing.T) {
	srv := mockAPIServer(t)
	setupTestEnvironment(t, []config.Environment{{Alias: "test", APIURL: srv.URL}})

	ctx := context.Background()
	store := auth.Default(srv.URL)
	require.NoError(t, store.Set(ctx, session.KeyAccessToken, accessToken))

	_, _, err := execute(t, NewWhoamiCmd())
	require.NoError(t, err)

	modern, err := store.Get(ctx, session.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, accessToken, modern)
}
