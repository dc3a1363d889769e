package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const doctorColumns = `id, user_id, full_name, specialization, availability, department_id, active, created_at, updated_at`

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", translate(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, `SELECT `+doctorColumns+` FROM doctors WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor by user: %w", translate(err))
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	doctor.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		UPDATE doctors
		SET full_name = $1, specialization = $2, department_id = $3, updated_at = $4
		WHERE id = $5`,
		doctor.FullName, doctor.Specialization, doctor.DepartmentID, doctor.UpdatedAt, doctor.ID)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", translate(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *doctorRepository) UpdateAvailability(ctx context.Context, id uuid.UUID, availability string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE doctors SET availability = $1, updated_at = $2 WHERE id = $3`,
		availability, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	if filters == nil {
		filters = &model.DoctorFilters{}
	}

	var (
		conds []string
		args  []interface{}
	)
	if !filters.IncludeInactive {
		conds = append(conds, "active = TRUE")
	}
	if filters.Name != "" {
		args = append(args, "%"+filters.Name+"%")
		conds = append(conds, fmt.Sprintf("full_name ILIKE $%d", len(args)))
	}
	if filters.Specialization != "" {
		args = append(args, "%"+filters.Specialization+"%")
		conds = append(conds, fmt.Sprintf("specialization ILIKE $%d", len(args)))
	}

	query := `SELECT ` + doctorColumns + ` FROM doctors`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY full_name"

	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
