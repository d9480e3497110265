package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/curatime/portal/internal/portal"
)

// NewAdminCmd creates the admin command group
func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back office: statistics, doctors, appointments and specialties",
	}

	cmd.AddCommand(newAdminDashboardCmd())
	cmd.AddCommand(newAdminDoctorsCmd())
	cmd.AddCommand(newAdminStatusCmd())
	cmd.AddCommand(newAdminSpecialtiesCmd())

	return cmd
}

func newAdminDashboardCmd() *cobra.Command {
	var envAlias string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"stats"},
		Short:   "Show back-office statistics and recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			dashboard, err := portal.NewAdminService(conn.client).Dashboard(cmd.Context())
			if dashboard == nil {
				return explain("/admin/dashboard", err)
			}
			if err != nil {
				// Counters loaded but the activity feed did not.
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", explain("/admin/dashboard", err))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, dashboard)
			}

			s := dashboard.Stats
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Doctors:\t%d\n", s.TotalDoctors)
			fmt.Fprintf(w, "Patients:\t%d\n", s.TotalPatients)
			fmt.Fprintf(w, "Specialties:\t%d\n", s.TotalSpecialties)
			fmt.Fprintf(w, "Active users:\t%d\n", s.ActiveUsers)
			fmt.Fprintf(w, "Appointments:\t%d (today %d, pending %d, completed %d)\n",
				s.TotalAppointments, s.TodayAppointments, s.PendingAppointments, s.CompletedAppointments)
			if err := w.Flush(); err != nil {
				return err
			}

			if len(dashboard.Activities) > 0 {
				fmt.Fprintln(out, "\nRecent activity:")
				for _, a := range dashboard.Activities {
					fmt.Fprintf(out, "  %s  %s\n", a.Date, a.Message)
				}
			}
			return nil
		},
	}
	envFlag(cmd, &envAlias)
	jsonFlag(cmd, &asJSON)

	return cmd
}

func newAdminDoctorsCmd() *cobra.Command {
	var envAlias string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "List and manage doctor accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			doctors, err := portal.NewAdminService(conn.client).Doctors(cmd.Context())
			if err != nil {
				return explain("/admin/doctors", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, doctors)
			}
			if len(doctors) == 0 {
				fmt.Fprintln(out, "No doctors found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSPECIALTY\tACTIVE")
			fmt.Fprintln(w, "──\t────\t─────\t─────────\t──────")
			for _, d := range doctors {
				fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\n", d.ID, d.FirstName, d.LastName, d.Email, d.Specialization, yesNo(d.IsActive))
			}
			return w.Flush()
		},
	}
	envFlag(cmd, &envAlias)
	jsonFlag(cmd, &asJSON)

	cmd.AddCommand(newAdminDoctorCreateCmd())
	cmd.AddCommand(newAdminDoctorUpdateCmd())
	cmd.AddCommand(newAdminDoctorToggleCmd())

	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func doctorFormFlags(cmd *cobra.Command, form *portal.DoctorForm) {
	f := cmd.Flags()
	f.StringVar(&form.FirstName, "first-name", "", "First name")
	f.StringVar(&form.LastName, "last-name", "", "Last name")
	f.StringVar(&form.Email, "email", "", "Email address")
	f.StringVar(&form.Specialization, "specialty", "", "Specialty id")
	f.StringVar(&form.Phone, "phone", "", "Phone number")
	f.StringVar(&form.ConsultationFee, "fee", "", "Consultation fee")
	f.StringVar(&form.Bio, "bio", "", "Short biography")
}

func newAdminDoctorCreateCmd() *cobra.Command {
	var envAlias string
	var form portal.DoctorForm

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a doctor account",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			result, err := portal.NewAdminService(conn.client).CreateDoctor(cmd.Context(), form)
			if err != nil {
				return explain("/admin/doctors", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Doctor %d created (%s)\n", result.Doctor.ID, result.Doctor.Email)
			return nil
		},
	}
	doctorFormFlags(cmd, &form)
	cmd.Flags().StringVar(&form.Password, "password", "", "Initial password")
	envFlag(cmd, &envAlias)

	return cmd
}

func newAdminDoctorUpdateCmd() *cobra.Command {
	var envAlias string
	var form portal.DoctorForm

	cmd := &cobra.Command{
		Use:   "update <doctor-id>",
		Short: "Edit a doctor account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "doctor")
			if err != nil {
				return err
			}

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			result, err := portal.NewAdminService(conn.client).UpdateDoctor(cmd.Context(), id, form)
			if err != nil {
				return explain("/admin/doctors", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Doctor %d updated\n", result.Doctor.ID)
			return nil
		},
	}
	doctorFormFlags(cmd, &form)
	envFlag(cmd, &envAlias)

	return cmd
}

func newAdminDoctorToggleCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:   "toggle <doctor-id>",
		Short: "Activate or deactivate a doctor account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "doctor")
			if err != nil {
				return err
			}

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			result, err := portal.NewAdminService(conn.client).ToggleDoctor(cmd.Context(), id)
			if err != nil {
				return explain("/admin/doctors", err)
			}

			state := "deactivated"
			if result.IsActive {
				state = "activated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Doctor %d %s\n", id, state)
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}

func newAdminStatusCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:   "status <appointment-id> <status>",
		Short: "Set the status of an appointment",
		Long: fmt.Sprintf(`Set the status of an appointment.

Valid statuses: %s`, strings.Join(portal.AppointmentStatuses, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "appointment")
			if err != nil {
				return err
			}

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			appointment, err := portal.NewAdminService(conn.client).UpdateAppointmentStatus(cmd.Context(), id, args[1])
			if err != nil {
				return explain("/admin/appointments", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Appointment %d is now %s\n", appointment.ID, appointment.Status)
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}

func newAdminSpecialtiesCmd() *cobra.Command {
	var envAlias string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "specialties",
		Short: "List and manage specialties",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			specialties, err := portal.NewAdminService(conn.client).Specialties(cmd.Context())
			if err != nil {
				return explain("/admin/specialties", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, specialties)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDOCTORS")
			fmt.Fprintln(w, "──\t────\t───────")
			for _, s := range specialties {
				fmt.Fprintf(w, "%d\t%s\t%d\n", s.ID, s.Name, s.DoctorsCount)
			}
			return w.Flush()
		},
	}
	envFlag(cmd, &envAlias)
	jsonFlag(cmd, &asJSON)

	cmd.AddCommand(newAdminSpecialtyAddCmd())
	cmd.AddCommand(newAdminSpecialtyRemoveCmd())

	return cmd
}

func newAdminSpecialtyAddCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a specialty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			specialty, err := portal.NewAdminService(conn.client).CreateSpecialty(cmd.Context(), args[0])
			if err != nil {
				return explain("/admin/specialties", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Specialty %d created (%s)\n", specialty.ID, specialty.Name)
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}

func newAdminSpecialtyRemoveCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:     "rm <specialty-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a specialty no doctor uses",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "specialty")
			if err != nil {
				return err
			}

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			msg, err := portal.NewAdminService(conn.client).DeleteSpecialty(cmd.Context(), id)
			if err != nil {
				return explain("/admin/specialties", err)
			}

			text := msg.Message
			if text == "" {
				text = fmt.Sprintf("Specialty %d deleted", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", text)
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}
