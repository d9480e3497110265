package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/curatime/portal/internal/apiclient"
	"github.com/curatime/portal/internal/cli/auth"
	"github.com/curatime/portal/internal/cli/config"
	"github.com/curatime/portal/internal/cli/envselect"
	"github.com/curatime/portal/internal/navigation"
	"github.com/curatime/portal/internal/notify"
	"github.com/curatime/portal/internal/session"
)

const requestTimeout = 30 * time.Second

// getSelectedEnvironment loads the config and returns the selected environment.
// This is common logic used by most commands.
func getSelectedEnvironment(alias string) (*config.Environment, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'curatime init' to create a configuration file", err)
	}

	env, err := envselect.ResolveEnvironment(cfg, alias)
	if err != nil {
		return nil, err
	}

	if err := env.Validate(); err != nil {
		return nil, err
	}

	return env, nil
}

// connection is an API client bound to the keychain session of one environment
type connection struct {
	env    *config.Environment
	store  session.Store
	client *apiclient.Client
}

// connect resolves the environment and builds a client that attaches the
// stored token and prints API failures to the command's stderr.
func connect(cmd *cobra.Command, alias string) (*connection, error) {
	env, err := getSelectedEnvironment(alias)
	if err != nil {
		return nil, err
	}

	store := auth.Default(env.APIURL)
	client := apiclient.New(env.APIURL,
		apiclient.WithTimeout(requestTimeout),
		apiclient.WithTokenSource(session.NewResolver(store)),
		apiclient.WithNotifier(notify.NewWriterNotifier(cmd.ErrOrStderr())),
	)

	return &connection{env: env, store: store, client: client}, nil
}

// explain turns an API failure raised for a portal page into the error a
// terminal user can act on. An unauthenticated call on a protected page
// becomes a login hint for the matching role.
func explain(page string, err error) error {
	if err == nil {
		return nil
	}
	if route, ok := (navigation.Guard{}).Redirect(page, err); ok {
		return fmt.Errorf("not signed in or session expired. Run 'curatime login --role %s'", navigation.RoleForLogin(route))
	}
	if apiErr, ok := apiclient.AsError(err); ok && !apiErr.Transport() && apiErr.Err == nil {
		// The message was already printed by the notifier.
		return fmt.Errorf("request failed with status %d", apiErr.StatusCode)
	}
	return err
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// envFlag registers the --env flag shared by API commands
func envFlag(cmd *cobra.Command, alias *string) {
	cmd.Flags().StringVar(alias, "env", "", "Environment alias (uses the selected environment if not specified)")
}

// jsonFlag registers the --json flag of listing commands
func jsonFlag(cmd *cobra.Command, asJSON *bool) {
	cmd.Flags().BoolVar(asJSON, "json", false, "Print the raw JSON payload")
}
