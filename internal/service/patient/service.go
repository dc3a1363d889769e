package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
)

type PatientService interface {
	GetMe(ctx context.Context, actor model.Identity) (*model.Patient, error)
	UpdateProfile(ctx context.Context, actor model.Identity, req model.UpdatePatientRequest) (*model.Patient, error)
	Search(ctx context.Context, actor model.Identity, q string) ([]*model.Patient, error)
	Deactivate(ctx context.Context, actor model.Identity, id uuid.UUID) error
}

type Service struct {
	patients repository.PatientRepository
	users    repository.UserRepository
	logger   *logger.Logger
}

func NewService(store *repository.Store, log *logger.Logger) *Service {
	return &Service{
		patients: store.Patients,
		users:    store.Users,
		logger:   log,
	}
}

var _ PatientService = (*Service)(nil)

// GetMe returns the acting patient's own profile.
func (s *Service) GetMe(ctx context.Context, actor model.Identity) (*model.Patient, error) {
	if !actor.IsPatient() {
		return nil, apperrors.Forbidden("patient access required")
	}
	return s.get(ctx, actor.ProfileID)
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

// UpdateProfile edits the acting patient's name and contact.
func (s *Service) UpdateProfile(ctx context.Context, actor model.Identity, req model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.GetMe(ctx, actor)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, apperrors.Validation("full name cannot be empty")
		}
		patient.FullName = name
	}
	if req.Contact != nil {
		patient.Contact = strings.TrimSpace(*req.Contact)
	}

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

// Search matches name or contact, case-insensitively. Admin only.
func (s *Service) Search(ctx context.Context, actor model.Identity, q string) ([]*model.Patient, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("admin access required")
	}

	patients, err := s.patients.Search(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patients, nil
}

// Deactivate soft-deletes a patient and their login. Admin only.
func (s *Service) Deactivate(ctx context.Context, actor model.Identity, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return apperrors.Forbidden("admin access required")
	}

	patient, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.SetActive(ctx, patient.UserID, false); err != nil {
		return apperrors.Internal(err)
	}

	s.logger.Info("patient deactivated", "patient_id", id.String())
	return nil
}
