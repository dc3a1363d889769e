package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const userColumns = `id, username, password_hash, role, active, created_at, updated_at`

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", translate(err))
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", translate(err))
	}
	return &user, nil
}

func stamp(b *model.Base) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
}

func insertUser(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	stamp(&user.Base)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func (r *userRepository) CreatePatient(ctx context.Context, user *model.User, patient *model.Patient) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		patient.UserID = user.ID
		stamp(&patient.Base)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO patients (id, user_id, full_name, contact, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			patient.ID,
			patient.UserID,
			patient.FullName,
			patient.Contact,
			patient.Active,
			patient.CreatedAt,
			patient.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", translate(err))
	}
	return nil
}

func (r *userRepository) CreateDoctor(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		doctor.UserID = user.ID
		stamp(&doctor.Base)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO doctors (`+doctorColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			doctor.ID,
			doctor.UserID,
			doctor.FullName,
			doctor.Specialization,
			doctor.Availability,
			doctor.DepartmentID,
			doctor.Active,
			doctor.CreatedAt,
			doctor.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", translate(err))
	}
	return nil
}

func (r *userRepository) CreateAdmin(ctx context.Context, user *model.User) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertUser(ctx, tx, user)
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", translate(err))
	}
	return nil
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		result, err := tx.ExecContext(ctx,
			`UPDATE users SET active = $1, updated_at = $2 WHERE id = $3`, active, now, id)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE patients SET active = $1, updated_at = $2 WHERE user_id = $3`, active, now, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE doctors SET active = $1, updated_at = $2 WHERE user_id = $3`, active, now, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set user active: %w", translate(err))
	}
	return nil
}
