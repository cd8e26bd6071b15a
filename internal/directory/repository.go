package directory

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var (
	ErrDoctorNotFound  = apperr.NotFound("doctor not found")
	ErrPatientNotFound = apperr.NotFound("patient not found")
)

// Repository contains all DB interactions needed by the directory service.
type Repository interface {
	ListDoctors(ctx context.Context) ([]Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	CreatePatient(ctx context.Context, p NewPatient) (*Patient, error)
	ListPatients(ctx context.Context, search string) ([]Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, patch PatientPatch) error
	DeletePatient(ctx context.Context, id uuid.UUID) error
}
