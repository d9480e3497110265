package commands

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/curatime/portal/internal/apiclient"
	"github.com/curatime/portal/internal/auth"
	"github.com/curatime/portal/internal/cli/envselect"
	"github.com/curatime/portal/internal/cli/userconfig"
)

// isInteractive reports whether prompts can be shown
var isInteractive = func() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

type loginOptions struct {
	role     string
	email    string
	password string
	env      string
}

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to CuraTime as a patient, doctor or administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.role, "role", "", "Account kind: client, doctor or admin (or set CURATIME_ROLE)")
	cmd.Flags().StringVar(&opts.email, "email", "", "Email address (or set CURATIME_EMAIL)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (or set CURATIME_PASSWORD, will prompt if not provided)")
	envFlag(cmd, &opts.env)

	return cmd
}

func runLogin(cmd *cobra.Command, opts *loginOptions) error {
	out := cmd.OutOrStdout()
	interactive := isInteractive()

	// Check for environment variables (useful for CI/CD)
	if opts.role == "" {
		opts.role = os.Getenv("CURATIME_ROLE")
	}
	if opts.email == "" {
		opts.email = os.Getenv("CURATIME_EMAIL")
	}
	if opts.password == "" {
		opts.password = os.Getenv("CURATIME_PASSWORD")
	}

	if opts.email == "" {
		return fmt.Errorf("email is required (use --email flag or CURATIME_EMAIL env var)")
	}

	conn, err := connect(cmd, opts.env)
	if err != nil {
		return err
	}

	if opts.role == "" {
		userCfg, err := userconfig.Load()
		if err != nil {
			return err
		}
		switch {
		case interactive:
			opts.role, err = envselect.PromptRole(userCfg.LastRole)
			if err != nil {
				return err
			}
		case userCfg.LastRole != "":
			opts.role = userCfg.LastRole
		default:
			return fmt.Errorf("role is required in non-interactive mode (use --role flag or CURATIME_ROLE env var)")
		}
	}

	// Prompt for password if not provided via flag or env var
	if opts.password == "" {
		if !interactive {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or CURATIME_PASSWORD env var)")
		}
		fmt.Fprint(out, "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		opts.password = string(bytePassword)
		fmt.Fprintln(out) // New line after password input
	}

	fmt.Fprintf(out, "Signing in to %s (%s) as %s...\n", conn.env.Alias, conn.env.APIURL, opts.role)

	provider := auth.NewProvider(conn.client, conn.store, zerolog.Nop())
	identity, err := provider.Login(cmd.Context(), auth.LoginRequest{
		Role:     opts.role,
		Email:    opts.email,
		Password: opts.password,
	})
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthenticated) {
			return fmt.Errorf("login failed: invalid credentials")
		}
		return err
	}

	if err := userconfig.SetLastRole(opts.role); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to remember role: %v\n", err)
	}

	fmt.Fprintln(out, "✓ Login successful!")
	fmt.Fprintf(out, "  User: %s %s (%s)\n", identity.FirstName, identity.LastName, identity.Email)
	fmt.Fprintf(out, "  Role: %s\n", identity.Role)

	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session of an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}
			provider := auth.NewProvider(conn.client, conn.store, zerolog.Nop())
			if err := provider.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed out of %s\n", conn.env.Alias)
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}
			provider := auth.NewProvider(conn.client, conn.store, zerolog.Nop())
			identity, err := provider.Current(cmd.Context())
			if err != nil {
				if errors.Is(err, auth.ErrNotAuthenticated) {
					return fmt.Errorf("not signed in to %s. Run 'curatime login' first", conn.env.Alias)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Environment: %s (%s)\n", conn.env.Alias, conn.env.APIURL)
			fmt.Fprintf(out, "User:        %s %s <%s>\n", identity.FirstName, identity.LastName, identity.Email)
			fmt.Fprintf(out, "Role:        %s\n", identity.Role)
			if !identity.ExpiresAt.IsZero() {
				state := "valid"
				if identity.Expired(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "Session:     %s until %s\n", state, identity.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}
