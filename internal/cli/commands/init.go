package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/curatime/portal/internal/cli/config"
)

type initOptions struct {
	alias       string
	portalURL   string
	skipBrowser bool
	out         io.Writer
}

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Add a CuraTime environment to ./curatime.json",
		Long: `Add a CuraTime environment to ./curatime.json.

Examples:
  $ curatime init http://127.0.0.1:8000/api
  $ curatime init https://api.curatime.example/api --alias production --portal-url https://curatime.example`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.out = cmd.OutOrStdout()
			return runInitWithOptions(args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.alias, "alias", "", "Environment alias (defaults to local, then env-N)")
	cmd.Flags().StringVar(&opts.portalURL, "portal-url", "", "Web portal URL, opened by 'curatime open'")
	cmd.Flags().BoolVar(&opts.skipBrowser, "no-browser", false, "Do not open the portal login page")

	return cmd
}

func runInitWithOptions(args []string, opts *initOptions) error {
	out := opts.out
	if out == nil {
		out = os.Stdout
	}

	env := config.Environment{
		Alias:     opts.alias,
		APIURL:    strings.TrimRight(args[0], "/"),
		PortalURL: strings.TrimRight(opts.portalURL, "/"),
	}
	if err := env.Validate(); err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	var cfg *config.Config
	isNewConfig := false

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		fmt.Fprintf(out, "Found existing %s\n", config.ConfigFileName)
	} else {
		cfg = &config.Config{
			Environments: []config.Environment{},
		}
		isNewConfig = true
	}

	if _, err := cfg.GetEnvironmentByURL(env.APIURL); err == nil {
		fmt.Fprintf(out, "Environment with API URL %s already exists in %s\n", env.APIURL, config.ConfigFileName)
		return nil
	}

	if env.Alias == "" {
		if len(cfg.Environments) == 0 {
			env.Alias = "local"
		} else {
			env.Alias = fmt.Sprintf("env-%d", len(cfg.Environments)+1)
		}
	}
	if _, err := cfg.GetEnvironmentByAlias(env.Alias); err == nil {
		return fmt.Errorf("alias '%s' is already used in %s", env.Alias, config.ConfigFileName)
	}

	cfg.Environments = append(cfg.Environments, env)

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./%s with environment %s (%s)\n", config.ConfigFileName, env.Alias, env.APIURL)
	} else {
		fmt.Fprintf(out, "✓ Added environment %s (%s) to ./%s\n", env.Alias, env.APIURL, config.ConfigFileName)
	}

	if env.PortalURL != "" && !opts.skipBrowser {
		loginURL := env.PortalURL + "/login"
		fmt.Fprintf(out, "\nOpening portal at %s...\n", loginURL)
		if err := openBrowser(loginURL); err != nil {
			fmt.Fprintf(out, "⚠ Could not open browser automatically: %v\n", err)
			fmt.Fprintf(out, "Please visit: %s\n", loginURL)
		}
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  Run 'curatime login' to authenticate")

	return nil
}
