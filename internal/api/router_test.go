package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/directory"
)

type mockAppointments struct {
	mock.Mock
}

func (m *mockAppointments) Create(ctx context.Context, in appointment.NewAppointment) (*appointment.Appointment, error) {
	args := m.Called(ctx, in)
	a, _ := args.Get(0).(*appointment.Appointment)
	return a, args.Error(1)
}

func (m *mockAppointments) Get(ctx context.Context, id uuid.UUID) (*appointment.View, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*appointment.View)
	return v, args.Error(1)
}

func (m *mockAppointments) List(ctx context.Context, f appointment.ListFilter) ([]appointment.View, error) {
	args := m.Called(ctx, f)
	v, _ := args.Get(0).([]appointment.View)
	return v, args.Error(1)
}

func (m *mockAppointments) Update(ctx context.Context, id uuid.UUID, u appointment.Update) (*appointment.View, error) {
	args := m.Called(ctx, id, u)
	v, _ := args.Get(0).(*appointment.View)
	return v, args.Error(1)
}

func (m *mockAppointments) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAppointments) MonthlyStats(ctx context.Context, month, year int) (appointment.Stats, error) {
	args := m.Called(ctx, month, year)
	return args.Get(0).(appointment.Stats), args.Error(1)
}

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ListDoctors(ctx context.Context) ([]directory.Doctor, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).([]directory.Doctor)
	return d, args.Error(1)
}

func (m *mockDirectory) GetDoctor(ctx context.Context, id uuid.UUID) (*directory.Doctor, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*directory.Doctor)
	return d, args.Error(1)
}

func (m *mockDirectory) CreatePatient(ctx context.Context, in directory.NewPatient) (*directory.Patient, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*directory.Patient)
	return p, args.Error(1)
}

func (m *mockDirectory) ListPatients(ctx context.Context, search string) ([]directory.Patient, error) {
	args := m.Called(ctx, search)
	p, _ := args.Get(0).([]directory.Patient)
	return p, args.Error(1)
}

func (m *mockDirectory) GetPatient(ctx context.Context, id uuid.UUID) (*directory.Patient, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*directory.Patient)
	return p, args.Error(1)
}

func (m *mockDirectory) UpdatePatient(ctx context.Context, id uuid.UUID, patch directory.PatientPatch) (*directory.Patient, error) {
	args := m.Called(ctx, id, patch)
	p, _ := args.Get(0).(*directory.Patient)
	return p, args.Error(1)
}

func (m *mockDirectory) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

const testSecret = "test-secret"

type fixture struct {
	appts  *mockAppointments
	dir    *mockDirectory
	router http.Handler
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	verifier := auth.NewJWTVerifier(testSecret)
	token, err := verifier.Sign(auth.User{ID: "user-1", Email: "desk@clinic.test", Audience: "authenticated"}, time.Hour)
	require.NoError(t, err)

	f := &fixture{appts: new(mockAppointments), dir: new(mockDirectory), token: token}
	f.router = NewRouter(RouterConfig{
		Appointments: f.appts,
		Directory:    f.dir,
		Auth:         verifier,
		Logger:       zerolog.Nop(),
		Postgres:     PingFunc(func(context.Context) error { return nil }),
		Env:          "test",
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoints(t *testing.T) {
	down := PingFunc(func(context.Context) error { return errors.New("refused") })
	up := PingFunc(func(context.Context) error { return nil })

	cases := []struct {
		name     string
		pg       Pinger
		redis    Pinger
		code     int
		status   string
		redisDep string
	}{
		{"all up", up, up, http.StatusOK, "ok", "ok"},
		{"redis disabled", up, nil, http.StatusOK, "ok", "disabled"},
		{"redis down", up, down, http.StatusOK, "degraded", "down"},
		{"postgres down", down, up, http.StatusServiceUnavailable, "error", "ok"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := NewRouter(RouterConfig{Logger: zerolog.Nop(), Postgres: tc.pg, Redis: tc.redis, Auth: auth.NewJWTVerifier(testSecret)})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tc.code, w.Code)

			resp := decodeBody[ReadinessResponse](t, w)
			assert.Equal(t, tc.status, resp.Status)
			assert.Equal(t, tc.redisDep, resp.Dependencies["redis"])
		})
	}

	router := NewRouter(RouterConfig{Logger: zerolog.Nop(), Postgres: up, Auth: auth.NewJWTVerifier(testSecret)})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthGuard(t *testing.T) {
	f := newFixture(t)

	for _, header := range []string{"", "Bearer not-a-jwt", "Token abc"} {
		req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		resp := decodeBody[ErrorResponse](t, w)
		assert.Equal(t, unauthorizedMessage, resp.Message)
	}
	f.appts.AssertNotCalled(t, "List", mock.Anything, mock.Anything)

	w := f.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody[UserResponse](t, w)
	assert.Equal(t, "user-1", me.ID)
	assert.Equal(t, "authenticated", me.Audience)
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestCreateAppointment(t *testing.T) {
	patient := uuid.New()
	doctor := uuid.New()
	when := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	t.Run("created", func(t *testing.T) {
		f := newFixture(t)
		f.appts.On("Create", mock.Anything, mock.MatchedBy(func(in appointment.NewAppointment) bool {
			return in.PatientID == patient && in.DoctorID != nil && *in.DoctorID == doctor && in.AppointmentTime.Equal(when)
		})).Return(&appointment.Appointment{
			ID: uuid.New(), PatientID: patient, DoctorID: &doctor, AppointmentTime: when, Status: appointment.StatusScheduled,
		}, nil)

		w := f.do(t, http.MethodPost, "/appointments", map[string]any{
			"patient_id":       patient.String(),
			"doctor_id":        doctor.String(),
			"appointment_time": "2024-03-05T11:00:00+01:00",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decodeBody[AppointmentResponse](t, w)
		assert.Equal(t, "scheduled", resp.Status)
		f.appts.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/appointments", map[string]any{"doctor_id": doctor.String()})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeBody[ErrorResponse](t, w)
		assert.Contains(t, resp.Message, "patient_id is required")
		f.appts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("invalid json", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/appointments", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("timestamp without offset is utc", func(t *testing.T) {
		f := newFixture(t)
		f.appts.On("Create", mock.Anything, mock.MatchedBy(func(in appointment.NewAppointment) bool {
			return in.AppointmentTime.Equal(when) && in.AppointmentTime.Location() == time.UTC
		})).Return(&appointment.Appointment{
			ID: uuid.New(), PatientID: patient, AppointmentTime: when, Status: appointment.StatusScheduled,
		}, nil)

		w := f.do(t, http.MethodPost, "/appointments", map[string]any{
			"patient_id":       patient.String(),
			"appointment_time": "2024-03-05T10:00:00",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		f.appts.AssertExpectations(t)
	})

	t.Run("unparseable timestamp", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/appointments", map[string]any{
			"patient_id":       patient.String(),
			"appointment_time": "next tuesday",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeBody[ErrorResponse](t, w)
		assert.Contains(t, resp.Message, "appointment_time")
		f.appts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("wrong field type is named", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPost, "/appointments", `{"patient_id": 5, "appointment_time": "2024-03-05T10:00:00Z"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeBody[ErrorResponse](t, w)
		assert.Contains(t, resp.Message, "patient_id must be a string")
	})

	t.Run("doctor unavailable", func(t *testing.T) {
		f := newFixture(t)
		f.appts.On("Create", mock.Anything, mock.Anything).
			Return(nil, &appointment.ConflictError{DoctorID: doctor, ConflictTime: when})

		w := f.do(t, http.MethodPost, "/appointments", map[string]any{
			"patient_id":       patient.String(),
			"doctor_id":        doctor.String(),
			"appointment_time": "2024-03-05T10:00:00Z",
		})
		require.Equal(t, http.StatusConflict, w.Code)
		resp := decodeBody[ErrorResponse](t, w)
		assert.Equal(t, "doctor_unavailable", resp.ErrorType)
		require.NotNil(t, resp.ConflictTime)
		assert.True(t, when.Equal(*resp.ConflictTime))
	})

	t.Run("upstream failure is opaque", func(t *testing.T) {
		f := newFixture(t)
		f.appts.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused to 10.0.0.3"))

		w := f.do(t, http.MethodPost, "/appointments", map[string]any{
			"patient_id":       patient.String(),
			"appointment_time": "2024-03-05T10:00:00Z",
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "10.0.0.3")
	})
}

func TestListAppointmentsParsesFilters(t *testing.T) {
	f := newFixture(t)
	doctor := uuid.New()
	recurring := true

	f.appts.On("List", mock.Anything, mock.MatchedBy(func(lf appointment.ListFilter) bool {
		return lf.Date != nil && lf.Date.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) &&
			lf.DoctorID != nil && *lf.DoctorID == doctor &&
			lf.PatientName == "ana" &&
			assert.ObjectsAreEqual([]appointment.Status{appointment.StatusCancelled, appointment.StatusNoShow}, lf.ExcludeStatuses) &&
			lf.SortBy == appointment.SortPatientName && lf.SortDesc
	})).Return([]appointment.View{{
		AppointmentDetail: appointment.AppointmentDetail{
			Appointment: appointment.Appointment{ID: uuid.New(), Status: appointment.StatusCompleted},
			Patient:     &appointment.PartyRef{ID: uuid.New(), Name: "Ana"},
		},
		Durations:          appointment.Durations{WaitSeconds: ptrTo(int64(900))},
		IsRecurringPatient: &recurring,
	}}, nil)

	w := f.do(t, http.MethodGet, "/appointments?date=2024-03-05&doctor_id="+doctor.String()+
		"&patient_name=ana&exclude_statuses[]=cancelled&exclude_statuses[]=no_show&sort_by=patient.name&sort_dir=desc", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, float64(900), items[0]["calculated_wait_time_seconds"])
	assert.Nil(t, items[0]["calculated_consultation_time_seconds"])
	assert.Equal(t, true, items[0]["is_recurring_patient"])
	assert.Equal(t, "Ana", items[0]["patient"].(map[string]any)["name"])
	assert.Nil(t, items[0]["doctor"])
}

func TestListAppointmentsRejectsBadFilters(t *testing.T) {
	f := newFixture(t)

	for _, q := range []string{"date=05/03/2024", "status=confirmed", "doctor_id=7", "include_statuses[]=bogus"} {
		w := f.do(t, http.MethodGet, "/appointments?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	f.appts.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestUpdateAppointment(t *testing.T) {
	id := uuid.New()

	t.Run("null doctor and status", func(t *testing.T) {
		f := newFixture(t)
		f.appts.On("Update", mock.Anything, id, mock.MatchedBy(func(u appointment.Update) bool {
			return u.DoctorIDSet && u.DoctorID == nil && u.Status != nil && *u.Status == appointment.StatusWaiting &&
				u.AppointmentTime == nil && !u.NotesSet
		})).Return(&appointment.View{AppointmentDetail: appointment.AppointmentDetail{
			Appointment: appointment.Appointment{ID: id, Status: appointment.StatusWaiting},
		}}, nil)

		w := f.do(t, http.MethodPut, "/appointments/"+id.String(), `{"doctor_id": null, "status": "waiting"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		f.appts.AssertExpectations(t)
	})

	t.Run("invalid transition", func(t *testing.T) {
		f := newFixture(t)
		f.appts.On("Update", mock.Anything, id, mock.Anything).
			Return(nil, &appointment.TransitionError{From: appointment.StatusCompleted, To: appointment.StatusWaiting})

		w := f.do(t, http.MethodPut, "/appointments/"+id.String(), `{"status": "waiting"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeBody[ErrorResponse](t, w)
		assert.Equal(t, "invalid_transition", resp.ErrorType)
	})

	t.Run("time without offset", func(t *testing.T) {
		f := newFixture(t)
		want := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
		f.appts.On("Update", mock.Anything, id, mock.MatchedBy(func(u appointment.Update) bool {
			return u.AppointmentTime != nil && u.AppointmentTime.Equal(want) && u.AppointmentTime.Location() == time.UTC
		})).Return(&appointment.View{AppointmentDetail: appointment.AppointmentDetail{
			Appointment: appointment.Appointment{ID: id, AppointmentTime: want, Status: appointment.StatusScheduled},
		}}, nil)

		w := f.do(t, http.MethodPut, "/appointments/"+id.String(), `{"appointment_time": "2024-03-05T10:00:00"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		f.appts.AssertExpectations(t)
	})

	t.Run("bad field values are named", func(t *testing.T) {
		f := newFixture(t)
		cases := map[string]string{
			`{"doctor_id": "7"}`:           "doctor_id must be a valid UUID",
			`{"appointment_time": "soon"}`: "appointment_time must be an ISO 8601 timestamp",
			`{"notes": 5}`:                 "notes must be a string",
			`{"appointment_time": null}`:   "appointment_time cannot be null",
		}
		for body, msg := range cases {
			w := f.do(t, http.MethodPut, "/appointments/"+id.String(), body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			resp := decodeBody[ErrorResponse](t, w)
			assert.Contains(t, resp.Message, msg, body)
		}
		f.appts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(t, http.MethodPut, "/appointments/"+id.String(), `{"status": "confirmed"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.appts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		f.appts.On("Update", mock.Anything, id, mock.Anything).Return(nil, appointment.ErrAppointmentNotFound)

		w := f.do(t, http.MethodPut, "/appointments/"+id.String(), `{"notes": "late"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetAndDeleteAppointment(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.appts.On("Get", mock.Anything, id).Return(nil, appointment.ErrAppointmentNotFound)
	f.appts.On("Delete", mock.Anything, id).Return(nil)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/appointments/"+id.String(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/appointments/123", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/appointments/"+id.String(), nil).Code)
}

func TestDashboard(t *testing.T) {
	stats, err := appointment.Aggregate(nil, 2, 2023)
	require.NoError(t, err)

	f := newFixture(t)
	f.appts.On("MonthlyStats", mock.Anything, 2, 2023).Return(stats, nil)

	w := f.do(t, http.MethodGet, "/dashboard/appointments-by-day?month=2&year=2023", nil)
	require.Equal(t, http.StatusOK, w.Code)
	days := decodeBody[[]DayCountResponse](t, w)
	assert.Len(t, days, 28)

	w = f.do(t, http.MethodGet, "/dashboard/stats?month=2&year=2023", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"totalAppointments":0,"avgWaitTime":0,"avgConsultTime":0}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/dashboard/summary?month=2&year=2023", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeBody[SummaryResponse](t, w)
	assert.Len(t, summary.WaitTime, 28)
	assert.Len(t, summary.AppointmentsByStatus, len(appointment.Statuses))

	for _, q := range []string{"", "?month=2", "?month=13&year=2023", "?month=feb&year=2023"} {
		w := f.do(t, http.MethodGet, "/dashboard/stats"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestPatients(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	dob := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)

	f.dir.On("CreatePatient", mock.Anything, mock.MatchedBy(func(in directory.NewPatient) bool {
		return in.Name == "Ana Ruiz" && in.DateOfBirth != nil && in.DateOfBirth.Equal(dob)
	})).Return(&directory.Patient{ID: id, Name: "Ana Ruiz", DateOfBirth: &dob}, nil)

	w := f.do(t, http.MethodPost, "/patients", map[string]any{"name": "Ana Ruiz", "date_of_birth": "1990-04-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decodeBody[PatientResponse](t, w)
	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, "1990-04-01", *p.DateOfBirth)

	w = f.do(t, http.MethodPost, "/patients", map[string]any{"contact_info": "555"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.dir.On("UpdatePatient", mock.Anything, id, mock.MatchedBy(func(patch directory.PatientPatch) bool {
		return patch.Name == nil && patch.ContactInfoSet && patch.ContactInfo == nil && !patch.DateOfBirthSet
	})).Return(&directory.Patient{ID: id, Name: "Ana Ruiz"}, nil)

	w = f.do(t, http.MethodPut, "/patients/"+id.String(), `{"contact_info": null}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	f.dir.On("DeletePatient", mock.Anything, id).Return(directory.ErrPatientNotFound)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/patients/"+id.String(), nil).Code)

	f.dir.On("ListPatients", mock.Anything, "ana").Return([]directory.Patient{{ID: id, Name: "Ana Ruiz"}}, nil)
	w = f.do(t, http.MethodGet, "/patients?search=ana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]PatientResponse](t, w), 1)

	f.dir.AssertExpectations(t)
}

func TestDoctors(t *testing.T) {
	f := newFixture(t)
	f.dir.On("ListDoctors", mock.Anything).Return([]directory.Doctor{{ID: uuid.New(), Name: "Dr. Vega"}}, nil)

	w := f.do(t, http.MethodGet, "/doctors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	docs := decodeBody[[]DoctorResponse](t, w)
	require.Len(t, docs, 1)
	assert.Equal(t, "Dr. Vega", docs[0].Name)
}

func TestLoginUnsupportedInJWTMode(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "desk@clinic.test", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "not-an-email", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func ptrTo[T any](v T) *T { return &v }
