package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type AppointmentStatus string

// MaxTimeSlotLen is the longest time slot label the store accepts.
const MaxTimeSlotLen = 20

const (
	AppointmentStatusBooked    AppointmentStatus = "Booked"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// ErrInvalidTransition is returned when a status change starts from a
// state that does not allow it.
var ErrInvalidTransition = errors.New("invalid appointment status transition")

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	switch AppointmentStatus(s) {
	case AppointmentStatusBooked, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return AppointmentStatus(s), nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// Terminal reports whether no further transition is possible.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

// Cancel returns the status after cancellation.
func (s AppointmentStatus) Cancel() (AppointmentStatus, error) {
	if s != AppointmentStatusBooked {
		return s, fmt.Errorf("%w: cannot cancel a %s appointment", ErrInvalidTransition, s)
	}
	return AppointmentStatusCancelled, nil
}

// Complete returns the status after completion.
func (s AppointmentStatus) Complete() (AppointmentStatus, error) {
	if s != AppointmentStatusBooked {
		return s, fmt.Errorf("%w: cannot complete a %s appointment", ErrInvalidTransition, s)
	}
	return AppointmentStatusCompleted, nil
}

type Appointment struct {
	Base
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	Date      Date              `db:"date" json:"date"`
	TimeSlot  string            `db:"time_slot" json:"time_slot"`
	Status    AppointmentStatus `db:"status" json:"status"`
}

// DoctorSlotKey identifies the (doctor, date, slot) tuple guarded by the
// doctor-side booking constraint.
func (a *Appointment) DoctorSlotKey() string {
	return a.DoctorID.String() + "|" + a.Date.Key() + "|" + a.TimeSlot
}

// PatientSlotKey identifies the (patient, date, slot) tuple guarded by the
// patient-side booking constraint.
func (a *Appointment) PatientSlotKey() string {
	return a.PatientID.String() + "|" + a.Date.Key() + "|" + a.TimeSlot
}

type BookAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Date     string    `json:"date"`
	TimeSlot string    `json:"time_slot"`
}

type AppointmentFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    AppointmentStatus
	From      *Date
	To        *Date
}
