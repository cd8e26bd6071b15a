package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/apperr"
)

type Status string

const (
	StatusScheduled      Status = "scheduled"
	StatusWaiting        Status = "waiting"
	StatusInConsultation Status = "in_consultation"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusNoShow         Status = "no_show"
)

// Statuses is the fixed vocabulary in lifecycle order.
var Statuses = []Status{
	StatusScheduled,
	StatusWaiting,
	StatusInConsultation,
	StatusCompleted,
	StatusCancelled,
	StatusNoShow,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", apperr.Validation(fmt.Sprintf("unknown status %q", raw))
	}
	return s, nil
}

// Lifecycle holds the write-once timestamps stamped by status transitions.
type Lifecycle struct {
	ArrivalTime           *time.Time
	ConsultationStartTime *time.Time
	ConsultationEndTime   *time.Time
}

func (l Lifecycle) IsZero() bool {
	return l.ArrivalTime == nil && l.ConsultationStartTime == nil && l.ConsultationEndTime == nil
}

type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	DoctorID        *uuid.UUID
	AppointmentTime time.Time
	Status          Status
	Notes           *string
	CreatedAt       time.Time
	Lifecycle
}

// PartyRef is the {id, name} projection of a related doctor or patient.
type PartyRef struct {
	ID   uuid.UUID
	Name string
}

// AppointmentDetail is an appointment with its relations resolved. A nil
// ref means the relation is null or the referenced row no longer exists.
type AppointmentDetail struct {
	Appointment
	Patient *PartyRef
	Doctor  *PartyRef
}

// View is what reads return: the stored row plus derived values.
type View struct {
	AppointmentDetail
	Durations          Durations
	IsRecurringPatient *bool
}

type NewAppointment struct {
	PatientID       uuid.UUID
	DoctorID        *uuid.UUID
	AppointmentTime time.Time
	Notes           *string
}

// Update is an update request. Nil pointers and false *Set flags mean the
// field was not sent.
type Update struct {
	DoctorIDSet     bool
	DoctorID        *uuid.UUID
	AppointmentTime *time.Time
	NotesSet        bool
	Notes           *string
	Status          *Status
}

func (u Update) Empty() bool {
	return !u.DoctorIDSet && u.AppointmentTime == nil && !u.NotesSet && u.Status == nil
}

// Changes is the resolved write set for one update.
type Changes struct {
	DoctorIDSet     bool
	DoctorID        *uuid.UUID
	AppointmentTime *time.Time
	NotesSet        bool
	Notes           *string
	Status          *Status
	Stamped         Lifecycle
}

func (c Changes) Empty() bool {
	return !c.DoctorIDSet && c.AppointmentTime == nil && !c.NotesSet && c.Status == nil && c.Stamped.IsZero()
}

type SortField string

const (
	SortAppointmentTime SortField = "appointment_time"
	SortStatus          SortField = "status"
	SortPatientName     SortField = "patient.name"
)

// ParseSortField falls back to appointment_time for anything unknown.
func ParseSortField(raw string) SortField {
	switch f := SortField(raw); f {
	case SortAppointmentTime, SortStatus, SortPatientName:
		return f
	default:
		return SortAppointmentTime
	}
}

type ListFilter struct {
	Date            *time.Time // any instant of the UTC day to list
	Status          *Status
	DoctorID        *uuid.UUID
	PatientName     string
	ExcludeStatuses []Status
	IncludeStatuses []Status
	SortBy          SortField
	SortDesc        bool
}

// WindowQuery selects a doctor's bookings with appointment_time in [From, To].
type WindowQuery struct {
	DoctorID        uuid.UUID
	From            time.Time
	To              time.Time
	ExcludeID       *uuid.UUID
	ExcludeStatuses []Status
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
