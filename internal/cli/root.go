package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/curatime/portal/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the curatime command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "curatime",
		Short: "CuraTime - medical appointments from the terminal",
		Long: `CuraTime CLI - Book consultations, run your practice and administer the platform.

Patients, doctors and administrators sign in with 'curatime login --role'.
Sessions are kept in the OS keychain, one per environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "curatime version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewSelectEnvCmd())
	rootCmd.AddCommand(commands.NewOpenCmd())
	rootCmd.AddCommand(commands.NewDoctorCmd())
	rootCmd.AddCommand(commands.NewAppointmentsCmd())
	rootCmd.AddCommand(commands.NewAdminCmd())
	rootCmd.AddCommand(commands.NewRequestCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
