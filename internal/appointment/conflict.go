package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

// SlotWindow is the minimum spacing between two bookings of one doctor.
const SlotWindow = 30 * time.Minute

// ConflictError reports that the doctor already has a booking within
// SlotWindow of the requested time.
type ConflictError struct {
	DoctorID     uuid.UUID
	ConflictTime time.Time
	Existing     []uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("doctor %s already has an appointment near %s",
		e.DoctorID, e.ConflictTime.UTC().Format(time.RFC3339))
}

func (e *ConflictError) ErrorCode() apperr.Code {
	return apperr.CodeConflict
}

// ConflictFinder loads a doctor's bookings in a time window.
type ConflictFinder interface {
	FindDoctorAppointments(ctx context.Context, q WindowQuery) ([]Appointment, error)
}

type ConflictDetector struct {
	finder         ConflictFinder
	ignoreInactive bool
}

// NewConflictDetector builds a detector. With ignoreInactive, cancelled and
// no_show bookings do not block a slot.
func NewConflictDetector(finder ConflictFinder, ignoreInactive bool) *ConflictDetector {
	return &ConflictDetector{finder: finder, ignoreInactive: ignoreInactive}
}

func (d *ConflictDetector) window(doctorID uuid.UUID, at time.Time, exclude *uuid.UUID) WindowQuery {
	at = at.UTC()
	q := WindowQuery{
		DoctorID:  doctorID,
		From:      at.Add(-SlotWindow),
		To:        at.Add(SlotWindow),
		ExcludeID: exclude,
	}
	if d.ignoreInactive {
		q.ExcludeStatuses = []Status{StatusCancelled, StatusNoShow}
	}
	return q
}

// Conflicts returns the bookings that block doctorID at the given time.
// Bounds are inclusive: a booking exactly SlotWindow away conflicts.
func (d *ConflictDetector) Conflicts(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude *uuid.UUID) ([]Appointment, error) {
	q := d.window(doctorID, at, exclude)

	rows, err := d.finder.FindDoctorAppointments(ctx, q)
	if err != nil {
		return nil, err
	}

	blocking := rows[:0:0]
	for _, a := range rows {
		if !q.blocks(a) {
			continue
		}
		blocking = append(blocking, a)
	}
	return blocking, nil
}

// Check returns a *ConflictError when the slot is taken.
func (d *ConflictDetector) Check(ctx context.Context, doctorID uuid.UUID, at time.Time, exclude *uuid.UUID) error {
	blocking, err := d.Conflicts(ctx, doctorID, at, exclude)
	if err != nil {
		return err
	}
	if len(blocking) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(blocking))
	for _, a := range blocking {
		ids = append(ids, a.ID)
	}
	return &ConflictError{DoctorID: doctorID, ConflictTime: at.UTC(), Existing: ids}
}

// blocks re-applies the window predicate to a returned row.
func (q WindowQuery) blocks(a Appointment) bool {
	if a.DoctorID == nil || *a.DoctorID != q.DoctorID {
		return false
	}
	if q.ExcludeID != nil && a.ID == *q.ExcludeID {
		return false
	}
	t := a.AppointmentTime.UTC()
	if t.Before(q.From) || t.After(q.To) {
		return false
	}
	for _, s := range q.ExcludeStatuses {
		if a.Status == s {
			return false
		}
	}
	return true
}
