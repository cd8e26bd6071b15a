package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/auth"
	"github.com/hackgods/clinic-scheduling/internal/directory"
)

// Optional tells an explicit null apart from an absent field.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Requests

type CreateAppointmentRequest struct {
	PatientID       string  `json:"patient_id" validate:"required,uuid"`
	DoctorID        *string `json:"doctor_id" validate:"omitempty,uuid"`
	AppointmentTime string  `json:"appointment_time" validate:"required"`
	Notes           *string `json:"notes" validate:"omitempty,max=2000"`
}

type UpdateAppointmentRequest struct {
	DoctorID        Optional[string] `json:"doctor_id"`
	AppointmentTime Optional[string] `json:"appointment_time"`
	Notes           Optional[string] `json:"notes"`
	Status          Optional[string] `json:"status"`
}

type CreatePatientRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	ContactInfo *string `json:"contact_info" validate:"omitempty,max=500"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

type UpdatePatientRequest struct {
	Name        Optional[string] `json:"name"`
	ContactInfo Optional[string] `json:"contact_info"`
	DateOfBirth Optional[string] `json:"date_of_birth"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Responses

type ErrorResponse struct {
	Message      string     `json:"message"`
	ErrorType    string     `json:"error_type"`
	ConflictTime *time.Time `json:"conflict_time,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RefResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type AppointmentResponse struct {
	ID                    uuid.UUID  `json:"id"`
	PatientID             uuid.UUID  `json:"patient_id"`
	DoctorID              *uuid.UUID `json:"doctor_id"`
	AppointmentTime       time.Time  `json:"appointment_time"`
	Status                string     `json:"status"`
	Notes                 *string    `json:"notes"`
	ArrivalTime           *time.Time `json:"arrival_time"`
	ConsultationStartTime *time.Time `json:"consultation_start_time"`
	ConsultationEndTime   *time.Time `json:"consultation_end_time"`
	CreatedAt             time.Time  `json:"created_at"`
}

type AppointmentViewResponse struct {
	AppointmentResponse
	Patient                 *RefResponse `json:"patient"`
	Doctor                  *RefResponse `json:"doctor"`
	WaitTimeSeconds         *int64       `json:"calculated_wait_time_seconds"`
	ConsultationTimeSeconds *int64       `json:"calculated_consultation_time_seconds"`
	IsRecurringPatient      *bool        `json:"is_recurring_patient,omitempty"`
}

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty"`
	CreatedAt time.Time `json:"created_at"`
}

type PatientResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContactInfo *string   `json:"contact_info"`
	DateOfBirth *string   `json:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at"`
}

type StatsResponse struct {
	TotalAppointments int `json:"totalAppointments"`
	AvgWaitTime       int `json:"avgWaitTime"`
	AvgConsultTime    int `json:"avgConsultTime"`
}

type DayWaitResponse struct {
	Day         int `json:"day"`
	AvgWaitTime int `json:"avgWaitTime"`
}

type DayConsultResponse struct {
	Day            int `json:"day"`
	AvgConsultTime int `json:"avgConsultTime"`
}

type DayCountResponse struct {
	Day   int `json:"day"`
	Count int `json:"count"`
}

type DoctorCountResponse struct {
	DoctorID         uuid.UUID `json:"doctorId"`
	DoctorName       string    `json:"doctorName"`
	AppointmentCount int       `json:"appointmentCount"`
}

type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type SummaryResponse struct {
	Month int `json:"month"`
	Year  int `json:"year"`
	StatsResponse
	WaitTime             []DayWaitResponse     `json:"waitTime"`
	ConsultTime          []DayConsultResponse  `json:"consultTime"`
	AppointmentsByDay    []DayCountResponse    `json:"appointmentsByDay"`
	AppointmentsByDoctor []DoctorCountResponse `json:"appointmentsByDoctor"`
	AppointmentsByStatus []StatusCountResponse `json:"appointmentsByStatus"`
}

type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Audience  string     `json:"aud"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Mappers

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                    a.ID,
		PatientID:             a.PatientID,
		DoctorID:              a.DoctorID,
		AppointmentTime:       a.AppointmentTime.UTC(),
		Status:                string(a.Status),
		Notes:                 a.Notes,
		ArrivalTime:           a.ArrivalTime,
		ConsultationStartTime: a.ConsultationStartTime,
		ConsultationEndTime:   a.ConsultationEndTime,
		CreatedAt:             a.CreatedAt,
	}
}

func toRef(r *appointment.PartyRef) *RefResponse {
	if r == nil {
		return nil
	}
	return &RefResponse{ID: r.ID, Name: r.Name}
}

func toViewResponse(v appointment.View) AppointmentViewResponse {
	return AppointmentViewResponse{
		AppointmentResponse:     toAppointmentResponse(v.Appointment),
		Patient:                 toRef(v.Patient),
		Doctor:                  toRef(v.Doctor),
		WaitTimeSeconds:         v.Durations.WaitSeconds,
		ConsultationTimeSeconds: v.Durations.ConsultationSeconds,
		IsRecurringPatient:      v.IsRecurringPatient,
	}
}

func toDoctorResponse(d directory.Doctor) DoctorResponse {
	return DoctorResponse{ID: d.ID, Name: d.Name, Specialty: d.Specialty, CreatedAt: d.CreatedAt}
}

func toPatientResponse(p directory.Patient) PatientResponse {
	resp := PatientResponse{ID: p.ID, Name: p.Name, ContactInfo: p.ContactInfo, CreatedAt: p.CreatedAt}
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.Format(dateLayout)
		resp.DateOfBirth = &dob
	}
	return resp
}

func toUserResponse(u auth.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Audience: u.Audience, CreatedAt: u.CreatedAt}
}

func toSummary(s appointment.Stats) SummaryResponse {
	out := SummaryResponse{
		Month: s.Month,
		Year:  s.Year,
		StatsResponse: StatsResponse{
			TotalAppointments: s.TotalAppointments,
			AvgWaitTime:       s.AvgWaitMinutes,
			AvgConsultTime:    s.AvgConsultMinutes,
		},
		WaitTime:             make([]DayWaitResponse, 0, len(s.WaitByDay)),
		ConsultTime:          make([]DayConsultResponse, 0, len(s.ConsultByDay)),
		AppointmentsByDay:    make([]DayCountResponse, 0, len(s.CountByDay)),
		AppointmentsByDoctor: make([]DoctorCountResponse, 0, len(s.CountByDoctor)),
		AppointmentsByStatus: make([]StatusCountResponse, 0, len(s.CountByStatus)),
	}
	for _, d := range s.WaitByDay {
		out.WaitTime = append(out.WaitTime, DayWaitResponse{Day: d.Day, AvgWaitTime: d.Minutes})
	}
	for _, d := range s.ConsultByDay {
		out.ConsultTime = append(out.ConsultTime, DayConsultResponse{Day: d.Day, AvgConsultTime: d.Minutes})
	}
	for _, d := range s.CountByDay {
		out.AppointmentsByDay = append(out.AppointmentsByDay, DayCountResponse{Day: d.Day, Count: d.Count})
	}
	for _, d := range s.CountByDoctor {
		out.AppointmentsByDoctor = append(out.AppointmentsByDoctor, DoctorCountResponse{
			DoctorID:         d.DoctorID,
			DoctorName:       d.DoctorName,
			AppointmentCount: d.Count,
		})
	}
	for _, c := range s.CountByStatus {
		out.AppointmentsByStatus = append(out.AppointmentsByStatus, StatusCountResponse{Status: string(c.Status), Count: c.Count})
	}
	return out
}
