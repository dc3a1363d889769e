package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/auth"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/security"
)

type Service struct {
	users    repository.UserRepository
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	hasher   security.PasswordHasher
	jwtSvc   auth.JWTService
	logger   *logger.Logger
}

func NewService(store *repository.Store, hasher security.PasswordHasher, jwtSvc auth.JWTService, log *logger.Logger) *Service {
	return &Service{
		users:    store.Users,
		patients: store.Patients,
		doctors:  store.Doctors,
		hasher:   hasher,
		jwtSvc:   jwtSvc,
		logger:   log,
	}
}

// RegisterPatient creates a patient login and its profile.
func (s *Service) RegisterPatient(ctx context.Context, req model.RegisterRequest) (*model.Patient, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, apperrors.Validation("username and full name are required")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.Validation(fmt.Sprintf("password must be at least %d characters long", security.MinPasswordLen))
		}
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RolePatient,
		Active:       true,
	}
	patient := &model.Patient{
		FullName: strings.TrimSpace(req.FullName),
		Contact:  strings.TrimSpace(req.Contact),
		Active:   true,
	}
	if err := s.users.CreatePatient(ctx, user, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("username already exists", err)
		}
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("patient registered", "user_id", user.ID.String(), "patient_id", patient.ID.String())
	return patient, nil
}

// Login exchanges credentials for an access token carrying the caller's
// identity.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, invalidCredentials()
	}
	if !user.Active {
		return nil, apperrors.Forbidden("account is deactivated")
	}

	identity, err := s.identityFor(ctx, user)
	if err != nil {
		return nil, err
	}

	token, ttl, err := s.jwtSvc.GenerateAccessToken(identity)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
		Identity:    identity,
	}, nil
}

func (s *Service) identityFor(ctx context.Context, user *model.User) (model.Identity, error) {
	identity := model.Identity{UserID: user.ID, Role: user.Role}

	switch user.Role {
	case model.RolePatient:
		p, err := s.patients.GetByUserID(ctx, user.ID)
		if err != nil {
			return identity, apperrors.Internal(fmt.Errorf("patient profile for user %s: %w", user.ID, err))
		}
		identity.ProfileID = p.ID
	case model.RoleDoctor:
		d, err := s.doctors.GetByUserID(ctx, user.ID)
		if err != nil {
			return identity, apperrors.Internal(fmt.Errorf("doctor profile for user %s: %w", user.ID, err))
		}
		identity.ProfileID = d.ID
	}
	return identity, nil
}

// ValidateToken resolves a bearer token into an identity.
func (s *Service) ValidateToken(token string) (model.Identity, error) {
	identity, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return model.Identity{}, apperrors.Unauthorized(err)
	}
	return identity, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		s.logger.Warn("admin bootstrap skipped: username or password not configured")
		return nil
	}

	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Active:       true,
	}
	if err := s.users.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("admin account created", "username", username)
	return nil
}

func invalidCredentials() error {
	return &apperrors.AppError{
		Code:    apperrors.ErrUnauthorized,
		Message: model.ErrInvalidCredentials.Error(),
		Err:     model.ErrInvalidCredentials,
	}
}
