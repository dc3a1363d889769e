package department

import (
	"context"
	"errors"
	"strings"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

type Service struct {
	repo repository.DepartmentRepository
}

func NewService(repo repository.DepartmentRepository) *Service {
	return &Service{repo: repo}
}

// Create adds a department. Names are unique regardless of case.
func (s *Service) Create(ctx context.Context, actor model.Identity, req model.CreateDepartmentRequest) (*model.Department, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("admin access required")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}

	dept := &model.Department{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.repo.Create(ctx, dept); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("department already exists", err)
		}
		return nil, apperrors.Internal(err)
	}
	return dept, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Department, error) {
	depts, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return depts, nil
}
