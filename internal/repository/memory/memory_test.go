package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

func newAppointment(patientID, doctorID uuid.UUID, date model.Date, slot string) *model.Appointment {
	return &model.Appointment{PatientID: patientID, DoctorID: doctorID, Date: date, TimeSlot: slot}
}

func TestBookEnforcesSlotConstraints(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	date := model.NewDate(2024, time.June, 1)
	p1, p2, d1, d2 := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	first := newAppointment(p1, d1, date, "09:00-09:30")
	require.NoError(t, store.Appointments.Book(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, model.AppointmentStatusBooked, first.Status)

	err := store.Appointments.Book(ctx, newAppointment(p2, d1, date, "09:00-09:30"))
	assert.ErrorIs(t, err, repository.ErrSlotTaken)

	err = store.Appointments.Book(ctx, newAppointment(p1, d2, date, "09:00-09:30"))
	assert.ErrorIs(t, err, repository.ErrPatientDoubleBooked)

	// Doctor conflict is reported before patient conflict.
	err = store.Appointments.Book(ctx, newAppointment(p1, d1, date, "09:00-09:30"))
	assert.ErrorIs(t, err, repository.ErrSlotTaken)

	require.NoError(t, store.Appointments.Book(ctx, newAppointment(p1, d1, date, "09:30-10:00")))
}

func TestCancelReleasesSlot(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	date := model.NewDate(2024, time.June, 1)
	p1, p2, d1 := uuid.New(), uuid.New(), uuid.New()

	appt := newAppointment(p1, d1, date, "09:00-09:30")
	require.NoError(t, store.Appointments.Book(ctx, appt))
	require.NoError(t, store.Appointments.Cancel(ctx, appt.ID))

	assert.ErrorIs(t, store.Appointments.Cancel(ctx, appt.ID), repository.ErrStatusChanged)
	require.NoError(t, store.Appointments.Book(ctx, newAppointment(p2, d1, date, "09:00-09:30")))
}

func TestCompleteStoresSingleTreatment(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	appt := newAppointment(uuid.New(), uuid.New(), model.NewDate(2024, time.June, 1), "10:00-10:30")
	require.NoError(t, store.Appointments.Book(ctx, appt))

	require.NoError(t, store.Appointments.Complete(ctx, appt.ID, &model.Treatment{Notes: "rest"}))
	err := store.Appointments.Complete(ctx, appt.ID, &model.Treatment{Notes: "again"})
	assert.ErrorIs(t, err, repository.ErrStatusChanged)

	got, err := store.Appointments.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, got.Status)

	tr, err := store.Treatments.GetByAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "rest", tr.Notes)
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	patient, doctor := uuid.New(), uuid.New()

	for _, d := range []model.Date{
		model.NewDate(2024, time.June, 2),
		model.NewDate(2024, time.May, 30),
		model.NewDate(2024, time.June, 10),
	} {
		require.NoError(t, store.Appointments.Book(ctx, newAppointment(patient, doctor, d, "09:00-09:30")))
	}

	byPatient, err := store.Appointments.ListByPatient(ctx, patient)
	require.NoError(t, err)
	require.Len(t, byPatient, 3)
	assert.Equal(t, "2024-06-10", byPatient[0].Date.String())
	assert.Equal(t, "2024-05-30", byPatient[2].Date.String())

	byDoctor, err := store.Appointments.ListByDoctor(ctx, doctor)
	require.NoError(t, err)
	require.Len(t, byDoctor, 3)
	assert.Equal(t, "2024-05-30", byDoctor[0].Date.String())
	assert.Equal(t, "2024-06-10", byDoctor[2].Date.String())
}

func TestUsernamesAreUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Users.CreatePatient(ctx,
		&model.User{Username: "alice", Role: model.RolePatient, Active: true},
		&model.Patient{FullName: "Alice", Active: true}))

	err := store.Users.CreateDoctor(ctx,
		&model.User{Username: "alice", Role: model.RoleDoctor, Active: true},
		&model.Doctor{FullName: "Dr Alice", Active: true})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	doctors, err := store.Doctors.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, doctors)
}

func TestOutboxRetryIsDeferred(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	evt := &model.OutboxEvent{EventType: model.EventAppointmentBooked, Payload: []byte(`{}`)}
	require.NoError(t, store.Outbox.Create(ctx, evt))

	pending, err := store.Outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.Outbox.MarkRetry(ctx, evt.ID, "redis down", time.Now().Add(time.Hour)))
	pending, err = store.Outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, store.Outbox.MarkProcessed(ctx, evt.ID))
	n, err := store.Outbox.DeleteProcessedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
