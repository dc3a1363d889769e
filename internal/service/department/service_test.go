package department

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
)

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStore().Departments)
	admin := model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}

	_, err := svc.Create(ctx, admin, model.CreateDepartmentRequest{Name: "Radiology"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, model.CreateDepartmentRequest{Name: "Cardiology", Description: "Heart"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, model.CreateDepartmentRequest{Name: "radiology"})
	assert.ErrorIs(t, err, apperrors.KindConflict)

	_, err = svc.Create(ctx, admin, model.CreateDepartmentRequest{Name: " "})
	assert.ErrorIs(t, err, apperrors.KindValidation)

	doctor := model.Identity{UserID: uuid.New(), Role: model.RoleDoctor, ProfileID: uuid.New()}
	_, err = svc.Create(ctx, doctor, model.CreateDepartmentRequest{Name: "Surgery"})
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Cardiology", list[0].Name)
}
