package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/curatime/portal/internal/cli/config"
	"github.com/curatime/portal/internal/cli/envselect"
	"github.com/curatime/portal/internal/cli/userconfig"
)

// NewSelectEnvCmd creates the select-env command
func NewSelectEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-env [api-url-or-alias]",
		Short: "Select the environment to use for commands",
		Long: `Select the environment to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ curatime select-env                            # Interactive selection
  $ curatime select-env https://api.example/api    # Select by API URL
  $ curatime select-env production                 # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectEnv(cmd, urlOrAlias)
		},
	}

	return cmd
}

func runSelectEnv(cmd *cobra.Command, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'curatime init' to create a configuration file", err)
	}

	var env *config.Environment

	if urlOrAlias != "" {
		env, err = envselect.GetEnvironmentByURLOrAlias(cfg, urlOrAlias)
	} else {
		env, err = envselect.PromptEnvironmentSelection(cfg)
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedEnvironment(env.APIURL); err != nil {
		return fmt.Errorf("failed to save selected environment: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Selected environment: %s (%s)\n", env.Alias, env.APIURL)
	return nil
}
