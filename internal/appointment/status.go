package appointment

import (
	"fmt"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

var allowedTransitions = map[Status][]Status{
	StatusScheduled:      {StatusWaiting, StatusCancelled, StatusNoShow},
	StatusWaiting:        {StatusInConsultation, StatusCancelled, StatusNoShow},
	StatusInConsultation: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted:      {},
	StatusCancelled:      {},
	StatusNoShow:         {},
}

// TransitionError is returned for a status change outside the lifecycle table.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %q to %q", e.From, e.To)
}

func (e *TransitionError) ErrorCode() apperr.Code {
	return apperr.CodeInvalidTransition
}

// CanTransition reports whether from -> to is in the lifecycle table.
func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// StatusChange is the outcome of ApplyStatusChange. Stamped only holds the
// timestamps newly set by this call.
type StatusChange struct {
	Status  Status
	Stamped Lifecycle
	Changed bool
}

// ApplyStatusChange validates current -> requested and stamps at most one
// lifecycle timestamp with now. Requesting the current status is a no-op.
func ApplyStatusChange(current, requested Status, ts Lifecycle, now time.Time) (StatusChange, error) {
	if requested == current {
		return StatusChange{Status: current}, nil
	}
	if !CanTransition(current, requested) {
		return StatusChange{}, &TransitionError{From: current, To: requested}
	}

	change := StatusChange{Status: requested, Changed: true}
	stamp := now.UTC()

	switch requested {
	case StatusWaiting:
		if ts.ArrivalTime == nil {
			change.Stamped.ArrivalTime = &stamp
		}
	case StatusInConsultation:
		if ts.ConsultationStartTime == nil {
			change.Stamped.ConsultationStartTime = &stamp
		}
	case StatusCompleted:
		if ts.ConsultationEndTime == nil {
			change.Stamped.ConsultationEndTime = &stamp
		}
	}

	return change, nil
}
