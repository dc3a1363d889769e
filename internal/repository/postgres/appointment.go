package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const appointmentColumns = `id, patient_id, doctor_id, date, time_slot, status, created_at, updated_at`

// Book probes both slot constraints inside the transaction so the common
// conflict is reported without relying on the insert failing. Concurrent
// inserts that slip past the probes are stopped by the partial unique
// indexes and translated to the same errors.
func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment) error {
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now().UTC()
	appointment.UpdatedAt = appointment.CreatedAt
	appointment.Status = model.AppointmentStatusBooked

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var taken bool
		err := tx.GetContext(ctx, &taken, `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE doctor_id = $1 AND date = $2 AND time_slot = $3 AND status = 'Booked'
			)`, appointment.DoctorID, appointment.Date, appointment.TimeSlot)
		if err != nil {
			return err
		}
		if taken {
			return repository.ErrSlotTaken
		}

		err = tx.GetContext(ctx, &taken, `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE patient_id = $1 AND date = $2 AND time_slot = $3 AND status = 'Booked'
			)`, appointment.PatientID, appointment.Date, appointment.TimeSlot)
		if err != nil {
			return err
		}
		if taken {
			return repository.ErrPatientDoubleBooked
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO appointments (`+appointmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			appointment.ID,
			appointment.PatientID,
			appointment.DoctorID,
			appointment.Date,
			appointment.TimeSlot,
			appointment.Status,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to book appointment: %w", translate(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", translate(err))
	}
	return &appointment, nil
}

// transition moves a Booked row to status. A miss is resolved into
// ErrNotFound or ErrStatusChanged.
func transition(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status model.AppointmentStatus) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = 'Booked'`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrStatusChanged
}

func (r *appointmentRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return transition(ctx, tx, id, model.AppointmentStatusCancelled)
	})
	if err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", translate(err))
	}
	return nil
}

func (r *appointmentRepository) Complete(ctx context.Context, id uuid.UUID, treatment *model.Treatment) error {
	if treatment.ID == uuid.Nil {
		treatment.ID = uuid.New()
	}
	treatment.AppointmentID = id
	treatment.CreatedAt = time.Now().UTC()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := transition(ctx, tx, id, model.AppointmentStatusCompleted); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO treatments (id, appointment_id, diagnosis, prescription, notes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			treatment.ID,
			treatment.AppointmentID,
			treatment.Diagnosis,
			treatment.Prescription,
			treatment.Notes,
			treatment.CreatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to complete appointment: %w", translate(err))
	}
	return nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return r.List(ctx, &model.AppointmentFilters{PatientID: patientID})
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY date ASC, time_slot ASC, created_at ASC
	`
	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filters.PatientID != uuid.Nil {
		add("patient_id = $%d", filters.PatientID)
	}
	if filters.DoctorID != uuid.Nil {
		add("doctor_id = $%d", filters.DoctorID)
	}
	if filters.Status != "" {
		add("status = $%d", filters.Status)
	}
	if filters.From != nil {
		add("date >= $%d", *filters.From)
	}
	if filters.To != nil {
		add("date <= $%d", *filters.To)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, time_slot ASC, created_at ASC"

	appointments := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *treatmentRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Treatment, error) {
	var treatment model.Treatment
	err := r.db.GetContext(ctx, &treatment, `
		SELECT id, appointment_id, diagnosis, prescription, notes, created_at
		FROM treatments
		WHERE appointment_id = $1`, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment: %w", translate(err))
	}
	return &treatment, nil
}

func (r *treatmentRepository) ListByAppointments(ctx context.Context, appointmentIDs []uuid.UUID) (map[uuid.UUID]*model.Treatment, error) {
	out := make(map[uuid.UUID]*model.Treatment, len(appointmentIDs))
	if len(appointmentIDs) == 0 {
		return out, nil
	}

	ids := make([]string, len(appointmentIDs))
	for i, id := range appointmentIDs {
		ids[i] = id.String()
	}

	var treatments []*model.Treatment
	err := r.db.SelectContext(ctx, &treatments, `
		SELECT id, appointment_id, diagnosis, prescription, notes, created_at
		FROM treatments
		WHERE appointment_id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}
	for _, t := range treatments {
		out[t.AppointmentID] = t
	}
	return out, nil
}
