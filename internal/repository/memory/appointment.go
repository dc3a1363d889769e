package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

type appointmentRepository struct {
	*db
}

func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.doctorSlots[appointment.DoctorSlotKey()]; taken {
		return repository.ErrSlotTaken
	}
	if _, taken := r.patientSlots[appointment.PatientSlotKey()]; taken {
		return repository.ErrPatientDoubleBooked
	}

	r.stamp(&appointment.Base)
	appointment.Status = model.AppointmentStatusBooked

	stored := *appointment
	r.appointments[stored.ID] = &stored
	r.doctorSlots[stored.DoctorSlotKey()] = stored.ID
	r.patientSlots[stored.PatientSlotKey()] = stored.ID
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *a
	return &c, nil
}

// release must be called with the write lock held.
func (r *appointmentRepository) release(a *model.Appointment) {
	delete(r.doctorSlots, a.DoctorSlotKey())
	delete(r.patientSlots, a.PatientSlotKey())
}

func (r *appointmentRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != model.AppointmentStatusBooked {
		return repository.ErrStatusChanged
	}

	r.release(a)
	a.Status = model.AppointmentStatusCancelled
	a.UpdatedAt = r.now()
	return nil
}

func (r *appointmentRepository) Complete(ctx context.Context, id uuid.UUID, treatment *model.Treatment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.Status != model.AppointmentStatusBooked {
		return repository.ErrStatusChanged
	}
	if _, exists := r.treatments[id]; exists {
		return repository.ErrDuplicate
	}

	r.release(a)
	a.Status = model.AppointmentStatusCompleted
	a.UpdatedAt = r.now()

	if treatment.ID == uuid.Nil {
		treatment.ID = uuid.New()
	}
	treatment.AppointmentID = id
	treatment.CreatedAt = a.UpdatedAt
	stored := *treatment
	r.treatments[id] = &stored
	return nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return r.List(ctx, &model.AppointmentFilters{PatientID: patientID})
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	out = copyAppointments(out)
	sortAppointments(out, false)
	return out, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Appointment
	for _, a := range r.appointments {
		if filters.PatientID != uuid.Nil && a.PatientID != filters.PatientID {
			continue
		}
		if filters.DoctorID != uuid.Nil && a.DoctorID != filters.DoctorID {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		if filters.From != nil && a.Date.Before(filters.From.Time) {
			continue
		}
		if filters.To != nil && a.Date.After(filters.To.Time) {
			continue
		}
		out = append(out, a)
	}
	out = copyAppointments(out)
	sortAppointments(out, true)
	return out, nil
}

type treatmentRepository struct {
	*db
}

func (r *treatmentRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.treatments[appointmentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *treatmentRepository) ListByAppointments(ctx context.Context, appointmentIDs []uuid.UUID) (map[uuid.UUID]*model.Treatment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[uuid.UUID]*model.Treatment, len(appointmentIDs))
	for _, id := range appointmentIDs {
		if t, ok := r.treatments[id]; ok {
			c := *t
			out[id] = &c
		}
	}
	return out, nil
}
