package model

import (
	"time"

	"github.com/google/uuid"
)

// Treatment is recorded exactly once, when an appointment is completed.
type Treatment struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	Prescription  string    `db:"prescription" json:"prescription"`
	Notes         string    `db:"notes" json:"notes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type CompleteAppointmentRequest struct {
	Diagnosis    string `json:"diagnosis" binding:"max=5000"`
	Prescription string `json:"prescription" binding:"max=5000"`
	Notes        string `json:"notes" binding:"max=5000"`
}
