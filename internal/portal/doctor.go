package portal

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/curatime/portal/internal/apiclient"
)

// DashboardStats are the counters on the doctor dashboard.
type DashboardStats struct {
	TotalPatients         int `json:"totalPatients"`
	TodayAppointments     int `json:"todayAppointments"`
	WeekAppointments      int `json:"weekAppointments"`
	CompletedAppointments int `json:"completedAppointments"`
}

// RecentAppointment is one row of the dashboard's latest bookings.
type RecentAppointment struct {
	ID         int    `json:"id"`
	ClientName string `json:"client_name"`
	DateTime   string `json:"date_time"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

// DoctorDashboard is everything the doctor dashboard shows.
type DoctorDashboard struct {
	Stats  DashboardStats      `json:"stats"`
	Recent []RecentAppointment `json:"recent_appointments"`
}

// DoctorProfile is the signed-in doctor's account and practice details.
type DoctorProfile struct {
	User   Person         `json:"user"`
	Doctor DoctorPractice `json:"doctor"`
}

// DoctorPractice holds the practice fields of a doctor profile.
type DoctorPractice struct {
	ID              int     `json:"id,omitempty"`
	Phone           string  `json:"phone"`
	Address         string  `json:"address"`
	City            string  `json:"city"`
	State           string  `json:"state"`
	ZipCode         string  `json:"zip_code"`
	Bio             string  `json:"bio"`
	ConsultationFee Decimal `json:"consultation_fee"`
	Photo           string  `json:"photo,omitempty"`
}

// DoctorProfileUpdate is the profile form. Empty fields are not sent, so an
// empty password leaves the current one unchanged.
type DoctorProfileUpdate struct {
	FirstName       string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName        string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Password        string `json:"password,omitempty" validate:"omitempty,min=8"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address         string `json:"address,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	ZipCode         string `json:"zip_code,omitempty" validate:"omitempty,max=10"`
	Bio             string `json:"bio,omitempty"`
	ConsultationFee string `json:"consultation_fee,omitempty" validate:"omitempty,numeric"`
}

// DoctorService calls the doctor-area endpoints.
type DoctorService struct {
	client *apiclient.Client
}

// NewDoctorService creates a DoctorService.
func NewDoctorService(client *apiclient.Client) *DoctorService {
	return &DoctorService{client: client}
}

// DashboardStats fetches the dashboard counters.
func (s *DoctorService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats, err := apiclient.Get[DashboardStats](ctx, s.client, "/doctors/dashboard/stats/")
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// RecentAppointments fetches the latest bookings.
func (s *DoctorService) RecentAppointments(ctx context.Context) ([]RecentAppointment, error) {
	resp, err := apiclient.Get[results[RecentAppointment]](ctx, s.client, "/doctors/appointments/recent/")
	if err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return []RecentAppointment{}, nil
	}
	return resp.Results, nil
}

// Dashboard fetches the counters and the recent bookings concurrently. The
// first failure cancels the other call and is returned.
func (s *DoctorService) Dashboard(ctx context.Context) (*DoctorDashboard, error) {
	var dashboard DoctorDashboard

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.DashboardStats(gctx)
		if err != nil {
			return err
		}
		dashboard.Stats = *stats
		return nil
	})
	g.Go(func() error {
		recent, err := s.RecentAppointments(gctx)
		if err != nil {
			return err
		}
		dashboard.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load doctor dashboard: %w", err)
	}
	return &dashboard, nil
}

// Me fetches the signed-in doctor's profile.
func (s *DoctorService) Me(ctx context.Context) (*DoctorProfile, error) {
	profile, err := apiclient.Get[DoctorProfile](ctx, s.client, "/doctors/me/")
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateMe saves the profile form.
func (s *DoctorService) UpdateMe(ctx context.Context, update DoctorProfileUpdate) (*DoctorProfile, error) {
	if err := validateStruct(update); err != nil {
		return nil, err
	}
	profile, err := apiclient.Patch[DoctorProfile](ctx, s.client, "/doctors/me/", update)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UploadPhoto replaces the profile photo.
func (s *DoctorService) UploadPhoto(ctx context.Context, filename string, content io.Reader) (*DoctorPractice, error) {
	if filename == "" {
		return nil, &ValidationError{Err: fmt.Errorf("filename is required")}
	}
	form := apiclient.NewFormData().AddFile("photo", filename, content)
	practice, err := apiclient.UploadFile[DoctorPractice](ctx, s.client, "/doctors/me/photo/", form)
	if err != nil {
		return nil, err
	}
	return &practice, nil
}

// Appointments lists every appointment booked with the signed-in doctor.
func (s *DoctorService) Appointments(ctx context.Context) ([]Appointment, error) {
	return apiclient.Get[[]Appointment](ctx, s.client, "/doctor/appointments/")
}
