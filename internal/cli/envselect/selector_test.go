package envselect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatime/portal/internal/cli/config"
	"github.com/curatime/portal/internal/cli/userconfig"
)

func twoEnvironments() *config.Config {
	return &config.Config{Environments: []config.Environment{
		{Alias: "staging", APIURL: "https://staging.example/api"},
		{Alias: "production", APIURL: "https://api.example/api"},
	}}
}

func TestResolveEnvironment_AliasWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedEnvironment("https://staging.example/api"))

	env, err := ResolveEnvironment(twoEnvironments(), "production")
	require.NoError(t, err)
	assert.Equal(t, "production", env.Alias)
}

func TestResolveEnvironment_UsesSelected(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedEnvironment("https://api.example/api"))

	env, err := ResolveEnvironment(twoEnvironments(), "")
	require.NoError(t, err)
	assert.Equal(t, "production", env.Alias)
}

func TestResolveEnvironment_SingleEnvironmentIsSaved(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, userconfig.SetSelectedEnvironment("https://gone.example/api"))

	env, err := ResolveEnvironment(config.DefaultConfig(), "")
	require.NoError(t, err)
	assert.Equal(t, "local", env.Alias)

	selected, err := userconfig.GetSelectedEnvironment()
	require.NoError(t, err)
	assert.Equal(t, env.APIURL, selected)
}

func TestResolveEnvironment_UnknownAlias(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := ResolveEnvironment(twoEnvironments(), "qa")
	assert.Error(t, err)
}

func TestGetEnvironmentByURLOrAlias(t *testing.T) {
	cfg := twoEnvironments()

	env, err := GetEnvironmentByURLOrAlias(cfg, "https://staging.example/api")
	require.NoError(t, err)
	assert.Equal(t, "staging", env.Alias)

	env, err = GetEnvironmentByURLOrAlias(cfg, "production")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example/api", env.APIURL)

	_, err = GetEnvironmentByURLOrAlias(cfg, "nope")
	assert.Error(t, err)
}
