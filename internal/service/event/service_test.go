package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/memory"
)

func TestEmitWritesOutbox(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewEventService(store.Outbox)

	payload := model.AppointmentEvent{AppointmentID: uuid.New(), TimeSlot: "09:00-09:30", Status: model.AppointmentStatusBooked}
	require.NoError(t, svc.Emit(ctx, model.EventAppointmentBooked, payload))

	pending, err := store.Outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.EventAppointmentBooked, pending[0].EventType)

	var got model.AppointmentEvent
	require.NoError(t, json.Unmarshal(pending[0].Payload, &got))
	assert.Equal(t, payload.AppointmentID, got.AppointmentID)
	assert.Equal(t, "09:00-09:30", got.TimeSlot)
}
