package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/curatime/portal/internal/apiclient"
)

// Doctor is a doctor as listed to patients.
type Doctor struct {
	ID              int     `json:"id"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Specialization  int     `json:"specialization"`
	ConsultationFee Decimal `json:"consultation_fee"`
	Bio             string  `json:"bio"`
}

// BookingRequest books a consultation.
type BookingRequest struct {
	Doctor   int       `json:"doctor" validate:"required,gt=0"`
	DateTime time.Time `json:"date_time" validate:"required"`
}

// RescheduleRequest moves an existing appointment.
type RescheduleRequest struct {
	DateTime time.Time `json:"date_time" validate:"required"`
}

// AppointmentService calls the patient-side appointment endpoints.
type AppointmentService struct {
	client *apiclient.Client
	now    func() time.Time
}

// NewAppointmentService creates an AppointmentService.
func NewAppointmentService(client *apiclient.Client) *AppointmentService {
	return &AppointmentService{client: client, now: time.Now}
}

// List returns the signed-in patient's appointments.
func (s *AppointmentService) List(ctx context.Context) ([]Appointment, error) {
	return apiclient.Get[[]Appointment](ctx, s.client, "/appointments/my/")
}

// Book creates an appointment. Dates in the past are refused before calling
// the API.
func (s *AppointmentService) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if !req.DateTime.After(s.now()) {
		return nil, &ValidationError{Err: fmt.Errorf("date_time must be in the future")}
	}
	appointment, err := apiclient.Post[Appointment](ctx, s.client, "/appointments/create/", req)
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Reschedule moves appointment id.
func (s *AppointmentService) Reschedule(ctx context.Context, id int, req RescheduleRequest) (*Appointment, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	appointment, err := apiclient.Patch[Appointment](ctx, s.client, fmt.Sprintf("/appointments/%d/update/", id), req)
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// Cancel deletes appointment id.
func (s *AppointmentService) Cancel(ctx context.Context, id int) error {
	_, err := apiclient.Delete[struct{}](ctx, s.client, fmt.Sprintf("/appointments/%d/delete/", id))
	return err
}

// Doctors lists every doctor.
func (s *AppointmentService) Doctors(ctx context.Context) ([]Doctor, error) {
	return apiclient.Get[[]Doctor](ctx, s.client, "/doctors/")
}

// DoctorsBySpecialty lists the doctors of one specialty.
func (s *AppointmentService) DoctorsBySpecialty(ctx context.Context, specialtyID int) ([]Doctor, error) {
	return apiclient.Get[[]Doctor](ctx, s.client, fmt.Sprintf("/specialties/%d/doctors/", specialtyID))
}
