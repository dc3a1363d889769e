package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/repository/memory"
	"github.com/jwalitptl/hospital-api/pkg/auth"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/security"
)

func newService() (*Service, *repository.Store) {
	store := memory.NewStore()
	svc := NewService(store,
		security.NewBcryptHasher(bcrypt.MinCost),
		auth.NewJWTService("secret", "hospital-api", time.Hour),
		logger.Nop())
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	patient, err := svc.RegisterPatient(ctx, model.RegisterRequest{
		Username: "alice", Password: "s3cret-pass", FullName: "Alice Smith", Contact: "555-0100",
	})
	require.NoError(t, err)
	assert.True(t, patient.Active)

	user, err := store.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.Equal(t, model.RolePatient, user.Role)

	resp, err := svc.Login(ctx, model.LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, patient.ID, resp.Identity.ProfileID)

	identity, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Identity, identity)
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.RegisterPatient(ctx, model.RegisterRequest{Username: "bob", Password: "long-enough", FullName: "Bob"})
	require.NoError(t, err)

	_, err = svc.RegisterPatient(ctx, model.RegisterRequest{Username: "bob", Password: "long-enough", FullName: "Bobby"})
	assert.ErrorIs(t, err, apperrors.KindConflict)

	_, err = svc.RegisterPatient(ctx, model.RegisterRequest{Username: "carol", Password: "short", FullName: "Carol"})
	assert.ErrorIs(t, err, apperrors.KindValidation)

	_, err = svc.RegisterPatient(ctx, model.RegisterRequest{Username: "  ", Password: "long-enough", FullName: "Dan"})
	assert.ErrorIs(t, err, apperrors.KindValidation)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	_, err := svc.RegisterPatient(ctx, model.RegisterRequest{Username: "erin", Password: "correct-pass", FullName: "Erin"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, model.LoginRequest{Username: "erin", Password: "wrong-pass"})
	assert.ErrorIs(t, err, apperrors.KindUnauthorized)

	_, err = svc.Login(ctx, model.LoginRequest{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, apperrors.KindUnauthorized)
	assert.Equal(t, "invalid credentials", apperrors.PublicMessage(err))

	user, err := store.Users.GetByUsername(ctx, "erin")
	require.NoError(t, err)
	require.NoError(t, store.Users.SetActive(ctx, user.ID, false))
	_, err = svc.Login(ctx, model.LoginRequest{Username: "erin", Password: "correct-pass"})
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, apperrors.KindUnauthorized)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "admin-pass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "other-pass"))

	resp, err := svc.Login(ctx, model.LoginRequest{Username: "admin", Password: "admin-pass"})
	require.NoError(t, err)
	assert.True(t, resp.Identity.IsAdmin())

	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))
}
