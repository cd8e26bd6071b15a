package directory

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
}

type Patient struct {
	ID          uuid.UUID
	Name        string
	ContactInfo *string
	DateOfBirth *time.Time
	CreatedAt   time.Time
}

// NewPatient is the input for patient registration.
type NewPatient struct {
	Name        string
	ContactInfo *string
	DateOfBirth *time.Time
}

// PatientPatch carries only the fields present in an update request.
// The *Set flags distinguish "clear to null" from "not sent".
type PatientPatch struct {
	Name           *string
	ContactInfoSet bool
	ContactInfo    *string
	DateOfBirthSet bool
	DateOfBirth    *time.Time
}

func (p PatientPatch) Empty() bool {
	return p.Name == nil && !p.ContactInfoSet && !p.DateOfBirthSet
}
