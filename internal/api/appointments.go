package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

type AppointmentService interface {
	Create(ctx context.Context, in appointment.NewAppointment) (*appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.View, error)
	List(ctx context.Context, f appointment.ListFilter) ([]appointment.View, error)
	Update(ctx context.Context, id uuid.UUID, u appointment.Update) (*appointment.View, error)
	Delete(ctx context.Context, id uuid.UUID) error
	MonthlyStats(ctx context.Context, month, year int) (appointment.Stats, error)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("id must be a valid UUID")
	}
	return id, nil
}

func createAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}

		in := appointment.NewAppointment{
			PatientID: uuid.MustParse(req.PatientID),
			Notes:     req.Notes,
		}
		if req.DoctorID != nil {
			id := uuid.MustParse(*req.DoctorID)
			in.DoctorID = &id
		}
		t, err := parseTimestamp("appointment_time", req.AppointmentTime)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		in.AppointmentTime = t

		appt, err := svc.Create(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

// Timestamps without an offset are read as UTC.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

func parseTimestamp(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation(field + " must be an ISO 8601 timestamp")
}

// statusList collects repeated key[] and key parameters, comma separated
// values included.
func statusList(q map[string][]string, key string) ([]appointment.Status, error) {
	var out []appointment.Status
	for _, k := range []string{key + "[]", key} {
		for _, raw := range q[k] {
			for _, part := range strings.Split(raw, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				s, err := appointment.ParseStatus(part)
				if err != nil {
					return nil, err
				}
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func parseListFilter(r *http.Request) (appointment.ListFilter, error) {
	q := r.URL.Query()
	var f appointment.ListFilter

	if raw := q.Get("date"); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return f, apperr.Validation("date must be formatted YYYY-MM-DD")
		}
		f.Date = &d
	}
	if raw := q.Get("status"); raw != "" {
		s, err := appointment.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = &s
	}
	if raw := q.Get("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperr.Validation("doctor_id must be a valid UUID")
		}
		f.DoctorID = &id
	}
	f.PatientName = q.Get("patient_name")

	var err error
	if f.ExcludeStatuses, err = statusList(q, "exclude_statuses"); err != nil {
		return f, err
	}
	if f.IncludeStatuses, err = statusList(q, "include_statuses"); err != nil {
		return f, err
	}

	f.SortBy = appointment.ParseSortField(q.Get("sort_by"))
	f.SortDesc = strings.EqualFold(q.Get("sort_dir"), "desc")
	return f, nil
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseListFilter(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		views, err := svc.List(r.Context(), f)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := make([]AppointmentViewResponse, 0, len(views))
		for _, v := range views {
			resp = append(resp, toViewResponse(v))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		v, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toViewResponse(*v))
	}
}

func (req UpdateAppointmentRequest) toUpdate() (appointment.Update, error) {
	var u appointment.Update

	if req.DoctorID.Set {
		u.DoctorIDSet = true
		if req.DoctorID.Value != nil {
			id, err := uuid.Parse(*req.DoctorID.Value)
			if err != nil {
				return u, apperr.Validation("doctor_id must be a valid UUID")
			}
			u.DoctorID = &id
		}
	}
	if req.AppointmentTime.Set {
		if req.AppointmentTime.Value == nil {
			return u, apperr.Validation("appointment_time cannot be null")
		}
		t, err := parseTimestamp("appointment_time", *req.AppointmentTime.Value)
		if err != nil {
			return u, err
		}
		u.AppointmentTime = &t
	}
	if req.Notes.Set {
		u.NotesSet = true
		u.Notes = req.Notes.Value
	}
	if req.Status.Set {
		if req.Status.Value == nil {
			return u, apperr.Validation("status cannot be null")
		}
		s, err := appointment.ParseStatus(*req.Status.Value)
		if err != nil {
			return u, err
		}
		u.Status = &s
	}
	return u, nil
}

func updateAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		var req UpdateAppointmentRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}
		u, err := req.toUpdate()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		v, err := svc.Update(r.Context(), id, u)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toViewResponse(*v))
	}
}

func deleteAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
