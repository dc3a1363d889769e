package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/jwalitptl/hospital-api/internal/repository"
)

const (
	uniqueViolation     pq.ErrorCode = "23505"
	foreignKeyViolation pq.ErrorCode = "23503"

	constraintDoctorSlot  = "appointments_doctor_slot_booked"
	constraintPatientSlot = "appointments_patient_slot_booked"
)

// translate maps driver errors onto repository sentinels. Unknown errors
// pass through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case uniqueViolation:
		switch pqErr.Constraint {
		case constraintDoctorSlot:
			return repository.ErrSlotTaken
		case constraintPatientSlot:
			return repository.ErrPatientDoubleBooked
		}
		return repository.ErrDuplicate
	case foreignKeyViolation:
		return repository.ErrNotFound
	}
	return err
}
