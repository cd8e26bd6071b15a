package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var (
	ErrAppointmentNotFound = apperr.NotFound("appointment not found")
	ErrUnknownPatient      = apperr.Validation("patient_id does not reference an existing patient")
	ErrUnknownDoctor       = apperr.Validation("doctor_id does not reference an existing doctor")
	ErrDoctorBeingBooked   = apperr.Conflict("doctor is being booked by another request, retry")
	ErrInvalidStatus       = apperr.Validation("invalid status")
)

type Repository interface {
	ConflictFinder

	CreateAppointment(ctx context.Context, in NewAppointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, f ListFilter) ([]AppointmentDetail, error)
	ListAppointmentsInRange(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, c Changes) error
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}
