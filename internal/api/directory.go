package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/directory"
)

type DirectoryService interface {
	ListDoctors(ctx context.Context) ([]directory.Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*directory.Doctor, error)
	CreatePatient(ctx context.Context, in directory.NewPatient) (*directory.Patient, error)
	ListPatients(ctx context.Context, search string) ([]directory.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*directory.Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, patch directory.PatientPatch) (*directory.Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error
}

func listDoctorsHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, toDoctorResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getDoctorHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		d, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(*d))
	}
}

func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, apperr.Validation(field + " must be formatted YYYY-MM-DD")
	}
	return &d, nil
}

func createPatientHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}

		dob, err := parseDate("date_of_birth", req.DateOfBirth)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		p, err := svc.CreatePatient(r.Context(), directory.NewPatient{
			Name:        req.Name,
			ContactInfo: req.ContactInfo,
			DateOfBirth: dob,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(*p))
	}
}

func listPatientsHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := make([]PatientResponse, 0, len(patients))
		for _, p := range patients {
			resp = append(resp, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getPatientHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		p, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(*p))
	}
}

func (req UpdatePatientRequest) toPatch() (directory.PatientPatch, error) {
	var patch directory.PatientPatch

	if req.Name.Set {
		if req.Name.Value == nil {
			return patch, apperr.Validation("name cannot be null")
		}
		patch.Name = req.Name.Value
	}
	if req.ContactInfo.Set {
		patch.ContactInfoSet = true
		patch.ContactInfo = req.ContactInfo.Value
	}
	if req.DateOfBirth.Set {
		dob, err := parseDate("date_of_birth", req.DateOfBirth.Value)
		if err != nil {
			return patch, err
		}
		patch.DateOfBirthSet = true
		patch.DateOfBirth = dob
	}
	return patch, nil
}

func updatePatientHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		var req UpdatePatientRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}
		patch, err := req.toPatch()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		p, err := svc.UpdatePatient(r.Context(), id, patch)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(*p))
	}
}

func deletePatientHandler(svc DirectoryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if err := svc.DeletePatient(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
