package portal

import (
	"context"
	"fmt"

	"github.com/curatime/portal/internal/apiclient"
)

// MonthCount is one bar of the monthly appointments chart.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// SpecialtyCount is the number of doctors practising a specialty.
type SpecialtyCount struct {
	Specialty string `json:"specialty"`
	Count     int    `json:"count"`
}

// AdminStats are the back-office dashboard counters.
type AdminStats struct {
	TotalDoctors          int              `json:"totalDoctors"`
	TotalPatients         int              `json:"totalPatients"`
	TotalAppointments     int              `json:"totalAppointments"`
	TotalSpecialties      int              `json:"totalSpecialties"`
	TodayAppointments     int              `json:"todayAppointments"`
	PendingAppointments   int              `json:"pendingAppointments"`
	CompletedAppointments int              `json:"completedAppointments"`
	ActiveUsers           int              `json:"activeUsers"`
	MonthlyAppointments   []MonthCount     `json:"monthlyAppointments"`
	SpecialtyStats        []SpecialtyCount `json:"specialtyStats"`
}

// Activity is an entry of the back-office activity feed.
type Activity struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Status  string `json:"status"`
}

// AdminDashboard is everything the admin dashboard shows.
type AdminDashboard struct {
	Stats      AdminStats `json:"stats"`
	Activities []Activity `json:"activities"`
}

// ManagedDoctor is a doctor as seen from the back office.
type ManagedDoctor struct {
	ID              int     `json:"id"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Specialization  string  `json:"specialization"`
	IsActive        bool    `json:"is_active"`
	DateJoined      string  `json:"date_joined,omitempty"`
	ConsultationFee Decimal `json:"consultation_fee"`
	Bio             string  `json:"bio"`
}

// DoctorForm creates or edits a doctor. Password is only required on
// creation.
type DoctorForm struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password,omitempty"`
	Specialization  string `json:"specialization" validate:"required"`
	Phone           string `json:"phone,omitempty"`
	ConsultationFee string `json:"consultation_fee,omitempty" validate:"omitempty,numeric"`
	Bio             string `json:"bio,omitempty"`
}

// DoctorMutation is the reply to a doctor creation or edit.
type DoctorMutation struct {
	Message string        `json:"message"`
	Doctor  ManagedDoctor `json:"doctor"`
}

// ToggleResult is the reply to an activation toggle.
type ToggleResult struct {
	Message  string `json:"message"`
	IsActive bool   `json:"is_active"`
}

// ManagedSpecialty is a specialty with its doctor count.
type ManagedSpecialty struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DoctorsCount int    `json:"doctors_count"`
}

// AppointmentStatuses are the statuses an administrator may set.
var AppointmentStatuses = []string{"pending", "confirmé", "annulé", "terminé"}

type statusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending confirmé annulé terminé"`
}

// AdminService calls the back-office endpoints.
type AdminService struct {
	client *apiclient.Client
}

// NewAdminService creates an AdminService.
func NewAdminService(client *apiclient.Client) *AdminService {
	return &AdminService{client: client}
}

// Stats fetches the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	stats, err := apiclient.Get[AdminStats](ctx, s.client, "/admin/dashboard/stats/")
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Activities fetches the latest activity feed.
func (s *AdminService) Activities(ctx context.Context) ([]Activity, error) {
	resp, err := apiclient.Get[results[Activity]](ctx, s.client, "/admin/dashboard/activities/")
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Dashboard fetches counters then activities. Unlike the doctor dashboard a
// failing activity feed does not hide the counters.
func (s *AdminService) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin dashboard: %w", err)
	}
	dashboard := &AdminDashboard{Stats: *stats, Activities: []Activity{}}

	activities, err := s.Activities(ctx)
	if err != nil {
		return dashboard, fmt.Errorf("failed to load activities: %w", err)
	}
	if activities != nil {
		dashboard.Activities = activities
	}
	return dashboard, nil
}

// Doctors lists all doctors.
func (s *AdminService) Doctors(ctx context.Context) ([]ManagedDoctor, error) {
	return apiclient.Get[[]ManagedDoctor](ctx, s.client, "/admin/doctors/")
}

// CreateDoctor registers a doctor account.
func (s *AdminService) CreateDoctor(ctx context.Context, form DoctorForm) (*DoctorMutation, error) {
	if err := validateStruct(form); err != nil {
		return nil, err
	}
	if form.Password == "" {
		return nil, &ValidationError{Err: fmt.Errorf("password is required")}
	}
	resp, err := apiclient.Post[DoctorMutation](ctx, s.client, "/admin/doctors/", form)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateDoctor edits doctor id. The password is never sent on edit.
func (s *AdminService) UpdateDoctor(ctx context.Context, id int, form DoctorForm) (*DoctorMutation, error) {
	if err := validateStruct(form); err != nil {
		return nil, err
	}
	form.Password = ""
	resp, err := apiclient.Put[DoctorMutation](ctx, s.client, fmt.Sprintf("/admin/doctors/%d/", id), form)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ToggleDoctor flips the active flag of doctor id.
func (s *AdminService) ToggleDoctor(ctx context.Context, id int) (*ToggleResult, error) {
	resp, err := apiclient.Patch[ToggleResult](ctx, s.client, fmt.Sprintf("/admin/doctors/%d/toggle-status/", id), nil)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateAppointmentStatus sets the status of appointment id.
func (s *AdminService) UpdateAppointmentStatus(ctx context.Context, id int, status string) (*Appointment, error) {
	update := statusUpdate{Status: status}
	if err := validateStruct(update); err != nil {
		return nil, err
	}
	resp, err := apiclient.Patch[Appointment](ctx, s.client, fmt.Sprintf("/admin/appointments/%d/status/", id), update)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Specialties lists specialties with their doctor counts.
func (s *AdminService) Specialties(ctx context.Context) ([]ManagedSpecialty, error) {
	return apiclient.Get[[]ManagedSpecialty](ctx, s.client, "/admin/specialties/")
}

// CreateSpecialty adds a specialty.
func (s *AdminService) CreateSpecialty(ctx context.Context, name string) (*ManagedSpecialty, error) {
	if name == "" {
		return nil, &ValidationError{Err: fmt.Errorf("name is required")}
	}
	resp, err := apiclient.Post[ManagedSpecialty](ctx, s.client, "/admin/specialties/", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSpecialty removes specialty id. The API refuses while doctors use it.
func (s *AdminService) DeleteSpecialty(ctx context.Context, id int) (*Message, error) {
	resp, err := apiclient.Delete[Message](ctx, s.client, fmt.Sprintf("/admin/specialties/%d/", id))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
