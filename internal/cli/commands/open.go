package commands

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/curatime/portal/internal/auth"
	"github.com/curatime/portal/internal/navigation"
)

// NewOpenCmd creates the open command
func NewOpenCmd() *cobra.Command {
	var envAlias string
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open the web portal in browser",
		Long: `Open the web portal in browser.

Signed-in users land on the home page of their role, everyone else on the login page.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}
			if conn.env.PortalURL == "" {
				return fmt.Errorf("environment '%s' has no portal_url. Please edit curatime.json", conn.env.Alias)
			}

			route := navigation.Login
			provider := auth.NewProvider(conn.client, conn.store, zerolog.Nop())
			identity, err := provider.Current(cmd.Context())
			switch {
			case err == nil && provider.Authenticated(cmd.Context()):
				route = identity.HomeRoute()
			case err == nil:
				route = navigation.LoginForRole(identity.Role)
			case !errors.Is(err, auth.ErrNotAuthenticated):
				return err
			}

			portalURL := conn.env.PortalURL + route
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "URL: %s\n", portalURL)
			if printOnly {
				return nil
			}

			fmt.Fprintf(out, "Opening portal for %s...\n", conn.env.Alias)
			if err := openBrowser(portalURL); err != nil {
				return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, portalURL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the URL without opening a browser")
	envFlag(cmd, &envAlias)

	return cmd
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
