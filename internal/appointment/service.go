package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
	"github.com/hackgods/clinic-scheduling/internal/config"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentUpdated   = "APPOINTMENT_UPDATED"
	EventAppointmentDeleted   = "APPOINTMENT_DELETED"
	EventStatusChanged        = "APPOINTMENT_STATUS_CHANGED"
	EventInconsistentDuration = "APPOINTMENT_INCONSISTENT_TIMESTAMPS"
)

type Service struct {
	repo     Repository
	locker   redisclient.Locker
	detector *ConflictDetector
	now      func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config) *Service {
	if locker == nil {
		locker = redisclient.NewNoopLocker()
	}
	return &Service{
		repo:     repo,
		locker:   locker,
		detector: NewConflictDetector(repo, cfg.ConflictIgnoreInactive),
		now:      time.Now,
	}
}

func upstream(op string, err error) error {
	var coded apperr.Coded
	if errors.As(err, &coded) {
		return err
	}
	return apperr.Upstream(op, err)
}

// withDoctor runs fn under the doctor's booking lock.
func (s *Service) withDoctor(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	err := s.locker.WithDoctorLock(ctx, doctorID, fn)
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		zerolog.Ctx(ctx).Info().Err(err).Str("doctor_id", doctorID.String()).Msg("doctor lock busy")
		return ErrDoctorBeingBooked
	}
	return err
}

// Create books an appointment in status scheduled. When a doctor is given,
// the conflict check and the insert run under that doctor's lock.
func (s *Service) Create(ctx context.Context, in NewAppointment) (*Appointment, error) {
	if in.PatientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	if in.AppointmentTime.IsZero() {
		return nil, apperr.Validation("appointment_time is required")
	}
	in.AppointmentTime = in.AppointmentTime.UTC()

	var created *Appointment
	insert := func(ctx context.Context) error {
		if in.DoctorID != nil {
			if err := s.detector.Check(ctx, *in.DoctorID, in.AppointmentTime, nil); err != nil {
				return err
			}
		}
		a, err := s.repo.CreateAppointment(ctx, in)
		if err != nil {
			return err
		}
		created = a
		return nil
	}

	var err error
	if in.DoctorID != nil {
		err = s.withDoctor(ctx, *in.DoctorID, insert)
	} else {
		err = insert(ctx)
	}
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			zerolog.Ctx(ctx).Info().
				Str("doctor_id", conflict.DoctorID.String()).
				Time("appointment_time", conflict.ConflictTime).
				Msg("booking rejected, doctor unavailable")
		}
		return nil, upstream("create appointment", err)
	}

	s.logEvent(ctx, created.ID, EventAppointmentCreated, func(e *zerolog.Event) {
		e.Str("patient_id", created.PatientID.String()).Time("appointment_time", created.AppointmentTime)
		if created.DoctorID != nil {
			e.Str("doctor_id", created.DoctorID.String())
		}
	})
	return created, nil
}

// Get returns one appointment with derived durations and the recurring flag.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	d, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, upstream("get appointment", err)
	}

	recurring, err := s.recurring(ctx, d.PatientID, map[uuid.UUID]bool{})
	if err != nil {
		return nil, err
	}

	v := s.view(ctx, *d)
	v.IsRecurringPatient = &recurring
	return &v, nil
}

// List applies f and augments each row. The recurring flag costs one count
// query per distinct patient in the result.
func (s *Service) List(ctx context.Context, f ListFilter) ([]View, error) {
	if f.Status != nil && !f.Status.Valid() {
		return nil, apperr.Validation("unknown status filter")
	}
	f.SortBy = ParseSortField(string(f.SortBy))

	rows, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, upstream("list appointments", err)
	}

	cache := map[uuid.UUID]bool{}
	out := make([]View, 0, len(rows))
	for _, d := range rows {
		recurring, err := s.recurring(ctx, d.PatientID, cache)
		if err != nil {
			return nil, err
		}
		v := s.view(ctx, d)
		v.IsRecurringPatient = &recurring
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) recurring(ctx context.Context, patientID uuid.UUID, cache map[uuid.UUID]bool) (bool, error) {
	if r, ok := cache[patientID]; ok {
		return r, nil
	}
	n, err := s.repo.CountByPatient(ctx, patientID)
	if err != nil {
		return false, upstream("count patient appointments", err)
	}
	cache[patientID] = n > 1
	return n > 1, nil
}

func (s *Service) view(ctx context.Context, d AppointmentDetail) View {
	v := View{AppointmentDetail: d, Durations: ComputeDurations(d.Lifecycle)}
	if v.Durations.Inconsistent() {
		s.logEvent(ctx, d.ID, EventInconsistentDuration, func(e *zerolog.Event) {
			e.Bool("negative_wait", v.Durations.NegativeWait).
				Bool("negative_consultation", v.Durations.NegativeConsultation)
		})
	}
	return v
}

// resolve drops requested values equal to the stored ones and validates the
// status change.
func (s *Service) resolve(current *Appointment, u Update) (Changes, error) {
	var c Changes

	if u.DoctorIDSet && !sameUUID(u.DoctorID, current.DoctorID) {
		c.DoctorIDSet = true
		c.DoctorID = u.DoctorID
	}
	if u.AppointmentTime != nil && !u.AppointmentTime.Equal(current.AppointmentTime) {
		t := u.AppointmentTime.UTC()
		c.AppointmentTime = &t
	}
	if u.NotesSet && !sameString(u.Notes, current.Notes) {
		c.NotesSet = true
		c.Notes = u.Notes
	}
	if u.Status != nil {
		change, err := ApplyStatusChange(current.Status, *u.Status, current.Lifecycle, s.now())
		if err != nil {
			return Changes{}, err
		}
		if change.Changed {
			st := change.Status
			c.Status = &st
			c.Stamped = change.Stamped
		}
	}
	return c, nil
}

// Update applies a partial update. Nothing is written when the request
// matches the stored record.
func (s *Service) Update(ctx context.Context, id uuid.UUID, u Update) (*View, error) {
	if u.Empty() {
		return nil, apperr.Validation("no updatable fields in request")
	}

	current, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, upstream("load appointment", err)
	}

	changes, err := s.resolve(current, u)
	if err != nil {
		return nil, err
	}
	if changes.Empty() {
		return s.Get(ctx, id)
	}

	doctorID := current.DoctorID
	if changes.DoctorIDSet {
		doctorID = changes.DoctorID
	}
	at := current.AppointmentTime
	if changes.AppointmentTime != nil {
		at = *changes.AppointmentTime
	}
	recheck := (changes.DoctorIDSet || changes.AppointmentTime != nil) && doctorID != nil

	write := func(ctx context.Context) error {
		if recheck {
			if err := s.detector.Check(ctx, *doctorID, at, &id); err != nil {
				return err
			}
		}
		return s.repo.UpdateAppointment(ctx, id, changes)
	}

	if recheck {
		err = s.withDoctor(ctx, *doctorID, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return nil, upstream("update appointment", err)
	}

	if changes.Status != nil {
		s.logEvent(ctx, id, EventStatusChanged, func(e *zerolog.Event) {
			e.Str("from", string(current.Status)).Str("to", string(*changes.Status))
			stampFields(e, changes.Stamped)
		})
	} else {
		s.logEvent(ctx, id, EventAppointmentUpdated, nil)
	}

	v, err := s.Get(ctx, id)
	if errors.Is(err, ErrAppointmentNotFound) {
		zerolog.Ctx(ctx).Error().Str("appointment_id", id.String()).Msg("updated appointment could not be read back")
		return nil, apperr.Upstream("read back appointment", err)
	}
	return v, err
}

func stampFields(e *zerolog.Event, l Lifecycle) {
	if l.ArrivalTime != nil {
		e.Time("arrival_time", *l.ArrivalTime)
	}
	if l.ConsultationStartTime != nil {
		e.Time("consultation_start_time", *l.ConsultationStartTime)
	}
	if l.ConsultationEndTime != nil {
		e.Time("consultation_end_time", *l.ConsultationEndTime)
	}
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return upstream("delete appointment", err)
	}
	s.logEvent(ctx, id, EventAppointmentDeleted, nil)
	return nil
}

// MonthlyStats aggregates every appointment of the given UTC month.
func (s *Service) MonthlyStats(ctx context.Context, month, year int) (Stats, error) {
	from, to, err := MonthRange(month, year)
	if err != nil {
		return Stats{}, err
	}

	rows, err := s.repo.ListAppointmentsInRange(ctx, from, to)
	if err != nil {
		return Stats{}, upstream("load monthly appointments", err)
	}

	return Aggregate(rows, month, year)
}

func (s *Service) logEvent(ctx context.Context, id uuid.UUID, eventType string, fields func(e *zerolog.Event)) {
	level := zerolog.InfoLevel
	if eventType == EventInconsistentDuration {
		level = zerolog.WarnLevel
	}

	e := zerolog.Ctx(ctx).WithLevel(level).
		Str("event", eventType).
		Str("appointment_id", id.String())
	if fields != nil {
		fields(e)
	}
	e.Msg("appointment event")
}
