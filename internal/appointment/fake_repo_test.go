package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepo is an in-memory Repository. mutate* counters let tests assert
// that no write happened.
type memRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]Appointment
	patients map[uuid.UUID]string
	doctors  map[uuid.UUID]string

	creates int
	updates int

	failWith error
}

func newMemRepo() *memRepo {
	return &memRepo{
		rows:     map[uuid.UUID]Appointment{},
		patients: map[uuid.UUID]string{},
		doctors:  map[uuid.UUID]string{},
	}
}

func (m *memRepo) seed(a Appointment) Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	m.rows[a.ID] = a
	return a
}

func (m *memRepo) detail(a Appointment) AppointmentDetail {
	d := AppointmentDetail{Appointment: a}
	if name, ok := m.patients[a.PatientID]; ok {
		d.Patient = &PartyRef{ID: a.PatientID, Name: name}
	}
	if a.DoctorID != nil {
		if name, ok := m.doctors[*a.DoctorID]; ok {
			d.Doctor = &PartyRef{ID: *a.DoctorID, Name: name}
		}
	}
	return d
}

func (m *memRepo) sorted() []Appointment {
	out := make([]Appointment, 0, len(m.rows))
	for _, a := range m.rows {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentTime.Before(out[j].AppointmentTime) })
	return out
}

func (m *memRepo) FindDoctorAppointments(_ context.Context, q WindowQuery) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []Appointment
	for _, a := range m.sorted() {
		if q.blocks(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) CreateAppointment(_ context.Context, in NewAppointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.creates++
	a := Appointment{
		ID:              uuid.New(),
		PatientID:       in.PatientID,
		DoctorID:        in.DoctorID,
		AppointmentTime: in.AppointmentTime,
		Status:          StatusScheduled,
		Notes:           in.Notes,
		CreatedAt:       time.Now().UTC(),
	}
	m.rows[a.ID] = a
	return &a, nil
}

func (m *memRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *memRepo) GetAppointmentDetail(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	d := m.detail(a)
	return &d, nil
}

func (m *memRepo) ListAppointments(_ context.Context, f ListFilter) ([]AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []AppointmentDetail
	for _, a := range m.sorted() {
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.DoctorID != nil && !sameUUID(a.DoctorID, f.DoctorID) {
			continue
		}
		out = append(out, m.detail(a))
	}
	return out, nil
}

func (m *memRepo) ListAppointmentsInRange(_ context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AppointmentDetail
	for _, a := range m.sorted() {
		if a.AppointmentTime.Before(from) || a.AppointmentTime.After(to) {
			continue
		}
		out = append(out, m.detail(a))
	}
	return out, nil
}

func (m *memRepo) UpdateAppointment(_ context.Context, id uuid.UUID, c Changes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	m.updates++
	if c.DoctorIDSet {
		a.DoctorID = c.DoctorID
	}
	if c.AppointmentTime != nil {
		a.AppointmentTime = *c.AppointmentTime
	}
	if c.NotesSet {
		a.Notes = c.Notes
	}
	if c.Status != nil {
		a.Status = *c.Status
	}
	if a.ArrivalTime == nil {
		a.ArrivalTime = c.Stamped.ArrivalTime
	}
	if a.ConsultationStartTime == nil {
		a.ConsultationStartTime = c.Stamped.ConsultationStartTime
	}
	if a.ConsultationEndTime == nil {
		a.ConsultationEndTime = c.Stamped.ConsultationEndTime
	}
	m.rows[id] = a
	return nil
}

func (m *memRepo) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memRepo) CountByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.rows {
		if a.PatientID == patientID {
			n++
		}
	}
	return n, nil
}

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }
