package model

import (
	"github.com/google/uuid"
)

type Patient struct {
	Base
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	FullName string    `db:"full_name" json:"full_name"`
	Contact  string    `db:"contact" json:"contact"`
	Active   bool      `db:"active" json:"active"`
}

type UpdatePatientRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=1,max=120"`
	Contact  *string `json:"contact" binding:"omitempty,max=50"`
}

// PatientHistory is a patient with appointments (newest first) and the
// treatments recorded against them.
type PatientHistory struct {
	Patient      *Patient                    `json:"patient"`
	Appointments []*AppointmentWithTreatment `json:"appointments"`
}

type AppointmentWithTreatment struct {
	*Appointment
	Treatment *Treatment `json:"treatment,omitempty"`
}
