package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/security"
)

type Config struct {
	CacheTTL        time.Duration
	CleanupInterval time.Duration
}

type Service struct {
	doctors repository.DoctorRepository
	users   repository.UserRepository
	hasher  security.PasswordHasher
	cache   *cache.Cache
	logger  *logger.Logger
}

func NewService(store *repository.Store, hasher security.PasswordHasher, cfg Config, log *logger.Logger) *Service {
	return &Service{
		doctors: store.Doctors,
		users:   store.Users,
		hasher:  hasher,
		cache:   cache.New(cfg.CacheTTL, cfg.CleanupInterval),
		logger:  log,
	}
}

// Create adds a doctor login and profile. Admin only.
func (s *Service) Create(ctx context.Context, actor model.Identity, req model.CreateDoctorRequest) (*model.Doctor, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("admin access required")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Validation(fmt.Sprintf("password must be at least %d characters long", security.MinPasswordLen))
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		Role:         model.RoleDoctor,
		Active:       true,
	}
	doctor := &model.Doctor{
		FullName:       strings.TrimSpace(req.FullName),
		Specialization: strings.TrimSpace(req.Specialization),
		DepartmentID:   req.DepartmentID,
		Active:         true,
	}
	if err := s.users.CreateDoctor(ctx, user, doctor); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.Conflict("username already exists", err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("department", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("doctor created", "doctor_id", doctor.ID.String(), "user_id", user.ID.String())
	return doctor, nil
}

// Get returns a doctor profile. Deactivated doctors are visible to admins only.
func (s *Service) Get(ctx context.Context, actor model.Identity, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !doctor.Active && !actor.IsAdmin() {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return doctor, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		d := *cached.(*model.Doctor)
		return &d, nil
	}

	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}

	stored := *doctor
	s.cache.SetDefault(id.String(), &stored)
	return doctor, nil
}

func (s *Service) invalidate(id uuid.UUID) {
	s.cache.Delete(id.String())
}

// Update changes a doctor's name, specialization or department. Admin only.
func (s *Service) Update(ctx context.Context, actor model.Identity, id uuid.UUID, req model.UpdateDoctorRequest) (*model.Doctor, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("admin access required")
	}

	doctor, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		doctor.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Specialization != nil {
		doctor.Specialization = strings.TrimSpace(*req.Specialization)
	}
	if req.DepartmentID != nil {
		doctor.DepartmentID = req.DepartmentID
	}

	if err := s.doctors.Update(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor or department", err)
		}
		return nil, apperrors.Internal(err)
	}
	s.invalidate(id)
	return doctor, nil
}

// UpdateAvailability replaces the free-text availability. Doctors may only
// edit their own profile.
func (s *Service) UpdateAvailability(ctx context.Context, actor model.Identity, id uuid.UUID, availability string) (*model.Doctor, error) {
	if !actor.IsDoctor() || actor.ProfileID != id {
		return nil, apperrors.Forbidden("you can only edit your own availability")
	}

	if err := s.doctors.UpdateAvailability(ctx, id, strings.TrimSpace(availability)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, apperrors.Internal(err)
	}
	s.invalidate(id)
	return s.load(ctx, id)
}

// Deactivate soft-deletes a doctor and their login. Admin only. Existing
// appointments are kept.
func (s *Service) Deactivate(ctx context.Context, actor model.Identity, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden("admin access required")
	}

	doctor, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.SetActive(ctx, doctor.UserID, false); err != nil {
		return apperrors.Internal(err)
	}
	s.invalidate(id)
	s.logger.Info("doctor deactivated", "doctor_id", id.String())
	return nil
}

// Search lists doctors by name and specialization substring. Only admins
// may include deactivated doctors.
func (s *Service) Search(ctx context.Context, actor model.Identity, filters model.DoctorFilters) ([]*model.Doctor, error) {
	filters.Name = strings.TrimSpace(filters.Name)
	filters.Specialization = strings.TrimSpace(filters.Specialization)
	if !actor.IsAdmin() {
		filters.IncludeInactive = false
	}

	doctors, err := s.doctors.List(ctx, &filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return doctors, nil
}
