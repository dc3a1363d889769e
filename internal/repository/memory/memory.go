// Package memory is an in-process Record Store. A single lock guards all
// tables so multi-row operations (booking, completion, registration) are
// atomic. It backs local runs with database.driver=memory and the tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

type db struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*model.User
	patients     map[uuid.UUID]*model.Patient
	doctors      map[uuid.UUID]*model.Doctor
	departments  map[uuid.UUID]*model.Department
	appointments map[uuid.UUID]*model.Appointment
	treatments   map[uuid.UUID]*model.Treatment // keyed by appointment id
	outbox       map[uuid.UUID]*model.OutboxEvent

	// Booked-only indexes mirroring the postgres partial unique indexes.
	doctorSlots  map[string]uuid.UUID
	patientSlots map[string]uuid.UUID

	now func() time.Time
}

// NewStore returns every repository backed by one shared in-memory database.
func NewStore() *repository.Store {
	d := &db{
		users:        make(map[uuid.UUID]*model.User),
		patients:     make(map[uuid.UUID]*model.Patient),
		doctors:      make(map[uuid.UUID]*model.Doctor),
		departments:  make(map[uuid.UUID]*model.Department),
		appointments: make(map[uuid.UUID]*model.Appointment),
		treatments:   make(map[uuid.UUID]*model.Treatment),
		outbox:       make(map[uuid.UUID]*model.OutboxEvent),
		doctorSlots:  make(map[string]uuid.UUID),
		patientSlots: make(map[string]uuid.UUID),
		now:          func() time.Time { return time.Now().UTC() },
	}

	return &repository.Store{
		Users:        &userRepository{d},
		Patients:     &patientRepository{d},
		Doctors:      &doctorRepository{d},
		Departments:  &departmentRepository{d},
		Appointments: &appointmentRepository{d},
		Treatments:   &treatmentRepository{d},
		Outbox:       &outboxRepository{d},
	}
}

func (d *db) stamp(b *model.Base) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := d.now()
	b.CreatedAt = now
	b.UpdatedAt = now
}

func copyAppointments(in []*model.Appointment) []*model.Appointment {
	out := make([]*model.Appointment, len(in))
	for i, a := range in {
		c := *a
		out[i] = &c
	}
	return out
}

// sortAppointments orders by date, then slot label, then creation time.
func sortAppointments(list []*model.Appointment, newestFirst bool) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date.Time) {
			if newestFirst {
				return a.Date.After(b.Date.Time)
			}
			return a.Date.Before(b.Date.Time)
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
