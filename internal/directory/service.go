package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// upstream keeps coded repository errors as they are and wraps the rest.
func upstream(op string, err error) error {
	var coded apperr.Coded
	if errors.As(err, &coded) {
		return err
	}
	return apperr.Upstream(op, err)
}

func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, upstream("list doctors", err)
	}
	return doctors, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, upstream("get doctor", err)
	}
	return d, nil
}

// CreatePatient registers a patient. Name is the only required field.
func (s *Service) CreatePatient(ctx context.Context, in NewPatient) (*Patient, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}

	p, err := s.repo.CreatePatient(ctx, in)
	if err != nil {
		return nil, upstream("create patient", err)
	}

	zerolog.Ctx(ctx).Info().Str("patient_id", p.ID.String()).Msg("patient created")
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context, search string) ([]Patient, error) {
	patients, err := s.repo.ListPatients(ctx, search)
	if err != nil {
		return nil, upstream("list patients", err)
	}
	return patients, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		return nil, upstream("get patient", err)
	}
	return p, nil
}

// UpdatePatient writes the present fields and reads the row back.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, patch PatientPatch) (*Patient, error) {
	if patch.Empty() {
		return nil, apperr.Validation("no updatable fields in request")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		patch.Name = &name
	}

	if err := s.repo.UpdatePatient(ctx, id, patch); err != nil {
		return nil, upstream("update patient", err)
	}

	p, err := s.repo.GetPatientByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			zerolog.Ctx(ctx).Error().Str("patient_id", id.String()).Msg("patient updated but not found on read back")
			return nil, apperr.Upstream("read back patient", err)
		}
		return nil, upstream("read back patient", err)
	}

	zerolog.Ctx(ctx).Info().Str("patient_id", id.String()).Msg("patient updated")
	return p, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeletePatient(ctx, id); err != nil {
		return upstream("delete patient", err)
	}
	zerolog.Ctx(ctx).Info().Str("patient_id", id.String()).Msg("patient deleted")
	return nil
}
