package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/curatime/portal/internal/portal"
)

const appointmentsPage = "/appointments"

// dateTimeLayout is how appointment dates are typed on the command line
const dateTimeLayout = "2006-01-02 15:04"

// NewAppointmentsCmd creates the appointments command group
func NewAppointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appt"},
		Short:   "Book and manage your appointments",
	}

	cmd.AddCommand(newAppointmentsListCmd())
	cmd.AddCommand(newAppointmentsBookCmd())
	cmd.AddCommand(newAppointmentsRescheduleCmd())
	cmd.AddCommand(newAppointmentsCancelCmd())
	cmd.AddCommand(newAppointmentsDoctorsCmd())

	return cmd
}

func parseID(arg, what string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

func parseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateTimeLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use \"YYYY-MM-DD HH:MM\" or RFC 3339)", value)
	}
	return t, nil
}

func newAppointmentsListCmd() *cobra.Command {
	var envAlias string
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			appointments, err := portal.NewAppointmentService(conn.client).List(cmd.Context())
			if err != nil {
				return explain(appointmentsPage, err)
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), appointments)
			}
			return printAppointments(cmd, appointments, "DOCTOR")
		},
	}
	envFlag(cmd, &envAlias)
	jsonFlag(cmd, &asJSON)

	return cmd
}

func newAppointmentsBookCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:   "book <doctor-id> <date-time>",
		Short: "Book an appointment",
		Long: `Book an appointment with a doctor.

Examples:
  $ curatime appointments book 7 "2026-11-03 09:30"
  $ curatime appointments book 7 2026-11-03T09:30:00+01:00`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doctorID, err := parseID(args[0], "doctor")
			if err != nil {
				return err
			}
			at, err := parseDateTime(args[1])
			if err != nil {
				return err
			}

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			appointment, err := portal.NewAppointmentService(conn.client).Book(cmd.Context(), portal.BookingRequest{
				Doctor:   doctorID,
				DateTime: at,
			})
			if err != nil {
				return explain(appointmentsPage, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Appointment %d booked for %s (%s)\n", appointment.ID, appointment.DateTime, appointment.Status)
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}

func newAppointmentsRescheduleCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:   "reschedule <appointment-id> <date-time>",
		Short: "Move an appointment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "appointment")
			if err != nil {
				return err
			}
			at, err := parseDateTime(args[1])
			if err != nil {
				return err
			}

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			appointment, err := portal.NewAppointmentService(conn.client).Reschedule(cmd.Context(), id, portal.RescheduleRequest{DateTime: at})
			if err != nil {
				return explain(appointmentsPage, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Appointment %d moved to %s\n", appointment.ID, appointment.DateTime)
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}

func newAppointmentsCancelCmd() *cobra.Command {
	var envAlias string

	cmd := &cobra.Command{
		Use:   "cancel <appointment-id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "appointment")
			if err != nil {
				return err
			}

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			if err := portal.NewAppointmentService(conn.client).Cancel(cmd.Context(), id); err != nil {
				return explain(appointmentsPage, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Appointment %d cancelled\n", id)
			return nil
		},
	}
	envFlag(cmd, &envAlias)

	return cmd
}

func newAppointmentsDoctorsCmd() *cobra.Command {
	var envAlias string
	var specialty int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "List doctors you can book",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			svc := portal.NewAppointmentService(conn.client)
			var doctors []portal.Doctor
			if specialty > 0 {
				doctors, err = svc.DoctorsBySpecialty(cmd.Context(), specialty)
			} else {
				doctors, err = svc.Doctors(cmd.Context())
			}
			// The doctor directory is public.
			if err != nil {
				return explain("/doctors", err)
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
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tFEE")
			fmt.Fprintln(w, "──\t────\t─────\t───")
			for _, d := range doctors {
				fmt.Fprintf(w, "%d\tDr %s %s\t%s\t%s\n", d.ID, d.FirstName, d.LastName, d.Email, d.ConsultationFee)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&specialty, "specialty", 0, "Only list doctors of this specialty id")
	envFlag(cmd, &envAlias)
	jsonFlag(cmd, &asJSON)

	return cmd
}
