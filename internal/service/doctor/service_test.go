package doctor

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/security"
)

var admin = model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}

func newService() *Service {
	return NewService(memory.NewStore(), security.NewBcryptHasher(bcrypt.MinCost),
		Config{CacheTTL: time.Minute, CleanupInterval: time.Minute}, logger.Nop())
}

func create(t *testing.T, svc *Service, username, name, spec string) *model.Doctor {
	t.Helper()
	d, err := svc.Create(context.Background(), admin, model.CreateDoctorRequest{
		Username: username, Password: "doctor-pass", FullName: name, Specialization: spec,
	})
	require.NoError(t, err)
	return d
}

func TestCreateRequiresAdmin(t *testing.T) {
	svc := newService()
	patient := model.Identity{UserID: uuid.New(), Role: model.RolePatient, ProfileID: uuid.New()}

	_, err := svc.Create(context.Background(), patient, model.CreateDoctorRequest{
		Username: "house", Password: "doctor-pass", FullName: "Gregory House", Specialization: "Diagnostics",
	})
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	create(t, svc, "house", "Gregory House", "Diagnostics")
	_, err = svc.Create(context.Background(), admin, model.CreateDoctorRequest{
		Username: "house", Password: "doctor-pass", FullName: "Other", Specialization: "Other",
	})
	assert.ErrorIs(t, err, apperrors.KindConflict)

	missing := uuid.New()
	_, err = svc.Create(context.Background(), admin, model.CreateDoctorRequest{
		Username: "wilson", Password: "doctor-pass", FullName: "James Wilson", Specialization: "Oncology", DepartmentID: &missing,
	})
	assert.ErrorIs(t, err, apperrors.KindNotFound)
}

func TestAvailabilityOwnProfileOnly(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	d := create(t, svc, "cuddy", "Lisa Cuddy", "Endocrinology")
	other := create(t, svc, "chase", "Robert Chase", "Surgery")

	self := model.Identity{UserID: d.UserID, Role: model.RoleDoctor, ProfileID: d.ID}

	// Prime the cache so the update must invalidate it.
	_, err := svc.Get(ctx, self, d.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateAvailability(ctx, self, d.ID, "Mon-Fri 09:00-17:00")
	require.NoError(t, err)
	assert.Equal(t, "Mon-Fri 09:00-17:00", updated.Availability)

	got, err := svc.Get(ctx, self, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mon-Fri 09:00-17:00", got.Availability)

	_, err = svc.UpdateAvailability(ctx, self, other.ID, "never")
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	_, err = svc.UpdateAvailability(ctx, admin, d.ID, "never")
	assert.ErrorIs(t, err, apperrors.KindForbidden)
}

func TestDeactivateHidesDoctor(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	d := create(t, svc, "foreman", "Eric Foreman", "Neurology")
	patient := model.Identity{UserID: uuid.New(), Role: model.RolePatient, ProfileID: uuid.New()}

	require.NoError(t, svc.Deactivate(ctx, admin, d.ID))

	_, err := svc.Get(ctx, patient, d.ID)
	assert.ErrorIs(t, err, apperrors.KindNotFound)

	got, err := svc.Get(ctx, admin, d.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	list, err := svc.Search(ctx, patient, model.DoctorFilters{IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.Search(ctx, admin, model.DoctorFilters{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSearchAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	create(t, svc, "a", "Alice Heart", "Cardiology")
	b := create(t, svc, "b", "Bob Bones", "Orthopedics")

	list, err := svc.Search(ctx, admin, model.DoctorFilters{Specialization: "cardio"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice Heart", list[0].FullName)

	name := "Robert Bones"
	updated, err := svc.Update(ctx, admin, b.ID, model.UpdateDoctorRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Robert Bones", updated.FullName)
	assert.Equal(t, "Orthopedics", updated.Specialization)

	list, err = svc.Search(ctx, admin, model.DoctorFilters{Name: "robert"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
