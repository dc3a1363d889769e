package patient

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
)

var admin = model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}

func register(t *testing.T, store *repository.Store, username, name, contact string) model.Identity {
	t.Helper()
	user := &model.User{Username: username, Role: model.RolePatient, Active: true}
	p := &model.Patient{FullName: name, Contact: contact, Active: true}
	require.NoError(t, store.Users.CreatePatient(context.Background(), user, p))
	return model.Identity{UserID: user.ID, Role: model.RolePatient, ProfileID: p.ID}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, logger.Nop())
	me := register(t, store, "alice", "Alice", "555-0100")

	contact := " alice@example.com "
	updated, err := svc.UpdateProfile(ctx, me, model.UpdatePatientRequest{Contact: &contact})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", updated.Contact)
	assert.Equal(t, "Alice", updated.FullName)

	got, err := svc.GetMe(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Contact)

	blank := "  "
	_, err = svc.UpdateProfile(ctx, me, model.UpdatePatientRequest{FullName: &blank})
	assert.ErrorIs(t, err, apperrors.KindValidation)

	_, err = svc.GetMe(ctx, admin)
	assert.ErrorIs(t, err, apperrors.KindForbidden)
}

func TestSearchAndDeactivate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store, logger.Nop())
	alice := register(t, store, "alice", "Alice Smith", "555-0100")
	register(t, store, "bob", "Bob Jones", "555-0199")

	found, err := svc.Search(ctx, admin, "SMITH")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, alice.ProfileID, found[0].ID)

	found, err = svc.Search(ctx, admin, "555-01")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = svc.Search(ctx, alice, "bob")
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	require.NoError(t, svc.Deactivate(ctx, admin, alice.ProfileID))
	got, err := svc.GetMe(ctx, alice)
	require.NoError(t, err)
	assert.False(t, got.Active)

	assert.ErrorIs(t, svc.Deactivate(ctx, admin, uuid.New()), apperrors.KindNotFound)
}
