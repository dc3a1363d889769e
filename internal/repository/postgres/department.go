package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
)

func (r *departmentRepository) Create(ctx context.Context, dept *model.Department) error {
	stamp(&dept.Base)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO departments (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		dept.ID, dept.Name, dept.Description, dept.CreatedAt, dept.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", translate(err))
	}
	return nil
}

func (r *departmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var dept model.Department
	err := r.db.GetContext(ctx, &dept, `
		SELECT id, name, description, created_at, updated_at
		FROM departments
		WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", translate(err))
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]*model.Department, error) {
	depts := []*model.Department{}
	err := r.db.SelectContext(ctx, &depts, `
		SELECT id, name, description, created_at, updated_at
		FROM departments
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}
