package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/curatime/portal/internal/portal"
)

// NewDoctorCmd creates the doctor command group
func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Doctor area: dashboard, profile and appointments",
	}

	cmd.AddCommand(newDoctorDashboardCmd())
	cmd.AddCommand(newDoctorProfileCmd())
	cmd.AddCommand(newDoctorUpdateCmd())
	cmd.AddCommand(newDoctorPhotoCmd())
	cmd.AddCommand(newDoctorAppointmentsCmd())

	return cmd
}

func newDoctorDashboardCmd() *cobra.Command {
	var envAlias string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the doctor dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			dashboard, err := portal.NewDoctorService(conn.client).Dashboard(cmd.Context())
			if err != nil {
				return explain("/doctor/dashboard", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, dashboard)
			}

			s := dashboard.Stats
			fmt.Fprintf(out, "Patients:            %d\n", s.TotalPatients)
			fmt.Fprintf(out, "Today:               %d\n", s.TodayAppointments)
			fmt.Fprintf(out, "This week:           %d\n", s.WeekAppointments)
			fmt.Fprintf(out, "Completed:           %d\n", s.CompletedAppointments)

			if len(dashboard.Recent) == 0 {
				fmt.Fprintln(out, "\nNo recent appointments.")
				return nil
			}

			fmt.Fprintln(out, "\nRecent appointments:")
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPATIENT\tDATE\tSTATUS")
			fmt.Fprintln(w, "──\t───────\t────\t──────")
			for _, a := range dashboard.Recent {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a.ClientName, a.DateTime, a.Status)
			}
			return w.Flush()
		},
	}
	envFlag(cmd, &envAlias)
	jsonFlag(cmd, &asJSON)

	return cmd
}

func newDoctorProfileCmd() *cobra.Command {
	var envAlias string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in doctor's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			profile, err := portal.NewDoctorService(conn.client).Me(cmd.Context())
			if err != nil {
				return explain("/doctor/profile", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, profile)
			}
			printDoctorProfile(cmd, profile)
			return nil
		},
	}
	envFlag(cmd, &envAlias)
	jsonFlag(cmd, &asJSON)

	return cmd
}

func printDoctorProfile(cmd *cobra.Command, profile *portal.DoctorProfile) {
	out := cmd.OutOrStdout()
	d := profile.Doctor
	fmt.Fprintf(out, "Name:    %s\n", profile.User.FullName())
	fmt.Fprintf(out, "Email:   %s\n", profile.User.Email)
	fmt.Fprintf(out, "Phone:   %s\n", d.Phone)
	fmt.Fprintf(out, "Address: %s, %s %s %s\n", d.Address, d.ZipCode, d.City, d.State)
	fmt.Fprintf(out, "Fee:     %s\n", d.ConsultationFee)
	if d.Bio != "" {
		fmt.Fprintf(out, "Bio:     %s\n", d.Bio)
	}
}

func newDoctorUpdateCmd() *cobra.Command {
	var envAlias string
	var update portal.DoctorProfileUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the signed-in doctor's profile",
		Long: `Update the signed-in doctor's profile.

Only the flags you pass are sent; leaving --password out keeps the current password.

Examples:
  $ curatime doctor update --city Oran --fee 2500
  $ curatime doctor update --password 'n3w-s3cret'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if update == (portal.DoctorProfileUpdate{}) {
				return fmt.Errorf("nothing to update. Pass at least one field flag")
			}

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			profile, err := portal.NewDoctorService(conn.client).UpdateMe(cmd.Context(), update)
			if err != nil {
				return explain("/doctor/profile", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Profile updated")
			printDoctorProfile(cmd, profile)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&update.FirstName, "first-name", "", "First name")
	f.StringVar(&update.LastName, "last-name", "", "Last name")
	f.StringVar(&update.Email, "email", "", "Email address")
	f.StringVar(&update.Password, "password", "", "New password (at least 8 characters)")
	f.StringVar(&update.Phone, "phone", "", "Phone number")
	f.StringVar(&update.Address, "address", "", "Street address")
	f.StringVar(&update.City, "city", "", "City")
	f.StringVar(&update.State, "state", "", "State or wilaya")
	f.StringVar(&update.ZipCode, "zip", "", "Postal code")
	f.StringVar(&update.Bio, "bio", "", "Short biography")
	f.StringVar(&update.ConsultationFee, "fee", "", "Consultation fee")
	envFlag(cmd, &envAlias)

	return cmd
}

func newDoctorPhotoCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:   "photo <image-file>",
		Short: "Upload a new profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open photo: %w", err)
			}
			defer file.Close()

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			practice, err := portal.NewDoctorService(conn.client).UploadPhoto(cmd.Context(), filepath.Base(args[0]), file)
			if err != nil {
				return explain("/doctor/profile", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Photo updated")
			if practice.Photo != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", practice.Photo)
			}
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}

func newDoctorAppointmentsCmd() *cobra.Command {
	var envAlias string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"ls"},
		Short:   "List appointments booked with the signed-in doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			appointments, err := portal.NewDoctorService(conn.client).Appointments(cmd.Context())
			if err != nil {
				return explain("/doctor/appointments", err)
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), appointments)
			}
			return printAppointments(cmd, appointments, "PATIENT")
		},
	}
	envFlag(cmd, &envAlias)
	jsonFlag(cmd, &asJSON)

	return cmd
}

// printAppointments renders appointments as a table. counterpart names the
// column holding the other party: the patient for doctors, the doctor for
// patients.
func printAppointments(cmd *cobra.Command, appointments []portal.Appointment, counterpart string) error {
	out := cmd.OutOrStdout()
	if len(appointments) == 0 {
		fmt.Fprintln(out, "No appointments found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\tDATE\tSTATUS\n", counterpart)
	fmt.Fprintln(w, "──\t──────\t────\t──────")
	for _, a := range appointments {
		other := a.Client
		if counterpart == "DOCTOR" {
			other = a.Doctor
		}
		name := "-"
		if other != nil {
			name = other.FullName()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, name, a.DateTime, a.Status)
	}
	return w.Flush()
}
