// Package ledger owns the appointment lifecycle: booking, cancellation and
// completion, and the rule that a doctor slot and a patient slot each hold
// at most one Booked appointment.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service/event"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/logger"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
)

const (
	MsgSlotTaken    = "slot taken"
	MsgDoubleBooked = "double-booked"
)

type Service struct {
	appointments repository.AppointmentRepository
	treatments   repository.TreatmentRepository
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	events       event.Emitter
	metrics      *metrics.Metrics
	logger       *logger.Logger
	now          func() time.Time
}

func NewService(store *repository.Store, events event.Emitter, m *metrics.Metrics, log *logger.Logger) *Service {
	if events == nil {
		events = event.Nop{}
	}
	return &Service{
		appointments: store.Appointments,
		treatments:   store.Treatments,
		doctors:      store.Doctors,
		patients:     store.Patients,
		events:       events,
		metrics:      m,
		logger:       log,
		now:          time.Now,
	}
}

func (s *Service) observe(op string) func() {
	timer := prometheus.NewTimer(s.metrics.LedgerOperationTime.WithLabelValues(op))
	return func() { timer.ObserveDuration() }
}

// Book creates a Booked appointment for the acting patient. Checks run in a
// fixed order so callers always see the same error for the same input:
// missing date or slot, malformed date, overlong slot, doctor slot taken,
// patient double-booked.
func (s *Service) Book(ctx context.Context, actor model.Identity, doctorID uuid.UUID, date, timeSlot string) (*model.Appointment, error) {
	defer s.observe("book")()

	if !actor.IsPatient() || actor.ProfileID == uuid.Nil {
		return nil, apperrors.Forbidden("only patients can book appointments")
	}

	patient, err := s.patients.Get(ctx, actor.ProfileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Forbidden("patient profile not found")
		}
		return nil, apperrors.Internal(err)
	}
	if !patient.Active {
		return nil, apperrors.Forbidden("patient account is inactive")
	}

	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, storeErr("doctor", err)
	}
	if !doctor.Active {
		return nil, apperrors.NotFound("doctor", nil)
	}

	date = strings.TrimSpace(date)
	timeSlot = strings.TrimSpace(timeSlot)
	if date == "" || timeSlot == "" {
		return nil, apperrors.Validation("date and time slot are required")
	}
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, apperrors.Validation("date must be in YYYY-MM-DD format")
	}
	if utf8.RuneCountInString(timeSlot) > model.MaxTimeSlotLen {
		return nil, apperrors.Validation(fmt.Sprintf("time slot must not exceed %d characters", model.MaxTimeSlotLen))
	}

	appointment := &model.Appointment{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Date:      day,
		TimeSlot:  timeSlot,
	}
	if err := s.appointments.Book(ctx, appointment); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			s.metrics.BookingConflicts.WithLabelValues("slot_taken").Inc()
			s.logger.Debug("booking rejected", "reason", "slot_taken", "doctor_id", doctor.ID.String(), "date", date, "time_slot", timeSlot)
			return nil, apperrors.Conflict(MsgSlotTaken, err)
		case errors.Is(err, repository.ErrPatientDoubleBooked):
			s.metrics.BookingConflicts.WithLabelValues("double_booked").Inc()
			s.logger.Debug("booking rejected", "reason", "double_booked", "patient_id", patient.ID.String(), "date", date, "time_slot", timeSlot)
			return nil, apperrors.Conflict(MsgDoubleBooked, err)
		}
		s.logger.Error(err, "failed to book appointment")
		return nil, apperrors.Internal(err)
	}

	s.metrics.AppointmentsBooked.Inc()
	s.emit(ctx, model.EventAppointmentBooked, appointment, actor)
	return appointment, nil
}

// Cancel moves the acting patient's Booked appointment to Cancelled.
func (s *Service) Cancel(ctx context.Context, actor model.Identity, appointmentID uuid.UUID) (*model.Appointment, error) {
	defer s.observe("cancel")()

	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, storeErr("appointment", err)
	}
	if !actor.IsPatient() || appointment.PatientID != actor.ProfileID {
		return nil, apperrors.Forbidden("you can only cancel your own appointments")
	}

	next, err := appointment.Status.Cancel()
	if err != nil {
		return nil, apperrors.Conflict(fmt.Sprintf("appointment is already %s", strings.ToLower(string(appointment.Status))), err)
	}

	if err := s.appointments.Cancel(ctx, appointmentID); err != nil {
		return nil, s.transitionErr(err)
	}

	appointment.Status = next
	appointment.UpdatedAt = s.now().UTC()
	s.metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	s.emit(ctx, model.EventAppointmentCancelled, appointment, actor)
	return appointment, nil
}

// Complete moves the acting doctor's Booked appointment to Completed and
// records its single treatment.
func (s *Service) Complete(ctx context.Context, actor model.Identity, appointmentID uuid.UUID, req model.CompleteAppointmentRequest) (*model.Treatment, error) {
	defer s.observe("complete")()

	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, storeErr("appointment", err)
	}
	if !actor.IsDoctor() || appointment.DoctorID != actor.ProfileID {
		return nil, apperrors.Forbidden("you can only complete your own appointments")
	}

	next, err := appointment.Status.Complete()
	if err != nil {
		return nil, apperrors.Conflict(fmt.Sprintf("appointment is already %s", strings.ToLower(string(appointment.Status))), err)
	}

	treatment := &model.Treatment{
		Diagnosis:    req.Diagnosis,
		Prescription: req.Prescription,
		Notes:        req.Notes,
	}
	if err := s.appointments.Complete(ctx, appointmentID, treatment); err != nil {
		return nil, s.transitionErr(err)
	}

	appointment.Status = next
	appointment.UpdatedAt = s.now().UTC()
	s.metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	s.emit(ctx, model.EventAppointmentCompleted, appointment, actor)
	return treatment, nil
}

// ListForPatient returns a patient's appointments, newest date first.
func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

// ListForDoctor returns a doctor's appointments, oldest date first.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.appointments.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

// ListMine lists the actor's own appointments in the order their role sees them.
func (s *Service) ListMine(ctx context.Context, actor model.Identity) ([]*model.Appointment, error) {
	switch {
	case actor.IsPatient() && actor.ProfileID != uuid.Nil:
		return s.ListForPatient(ctx, actor.ProfileID)
	case actor.IsDoctor() && actor.ProfileID != uuid.Nil:
		return s.ListForDoctor(ctx, actor.ProfileID)
	}
	return nil, apperrors.Forbidden("only patients and doctors have their own appointments")
}

// ListAll is the admin view over every appointment, newest date first.
func (s *Service) ListAll(ctx context.Context, actor model.Identity, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("admin access required")
	}
	appointments, err := s.appointments.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appointments, nil
}

// Get returns one appointment to its patient, its doctor or an admin.
func (s *Service) Get(ctx context.Context, actor model.Identity, appointmentID uuid.UUID) (*model.AppointmentWithTreatment, error) {
	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, storeErr("appointment", err)
	}
	if !canView(actor, appointment) {
		return nil, apperrors.Forbidden("you do not have access to this appointment")
	}

	out := &model.AppointmentWithTreatment{Appointment: appointment}
	if appointment.Status == model.AppointmentStatusCompleted {
		treatment, err := s.treatments.GetByAppointment(ctx, appointmentID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(err)
		}
		out.Treatment = treatment
	}
	return out, nil
}

// PatientHistory returns a patient's appointments with their treatments.
// Admins and doctors may read any patient's history, patients only their own.
func (s *Service) PatientHistory(ctx context.Context, actor model.Identity, patientID uuid.UUID) (*model.PatientHistory, error) {
	if actor.IsPatient() && actor.ProfileID != patientID {
		return nil, apperrors.Forbidden("you can only view your own history")
	}
	if !actor.Role.Valid() {
		return nil, apperrors.Forbidden("unknown role")
	}

	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, storeErr("patient", err)
	}

	appointments, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	ids := make([]uuid.UUID, 0, len(appointments))
	for _, a := range appointments {
		if a.Status == model.AppointmentStatusCompleted {
			ids = append(ids, a.ID)
		}
	}
	treatments, err := s.treatments.ListByAppointments(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	history := &model.PatientHistory{
		Patient:      patient,
		Appointments: make([]*model.AppointmentWithTreatment, 0, len(appointments)),
	}
	for _, a := range appointments {
		history.Appointments = append(history.Appointments, &model.AppointmentWithTreatment{
			Appointment: a,
			Treatment:   treatments[a.ID],
		})
	}
	return history, nil
}

func canView(actor model.Identity, a *model.Appointment) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RolePatient:
		return a.PatientID == actor.ProfileID
	case model.RoleDoctor:
		return a.DoctorID == actor.ProfileID
	}
	return false
}

// transitionErr maps a failed compare-and-set on the appointment row.
func (s *Service) transitionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("appointment", err)
	case errors.Is(err, repository.ErrStatusChanged), errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("appointment is no longer booked", err)
	}
	s.logger.Error(err, "failed to update appointment status")
	return apperrors.Internal(err)
}

// emit records an outbox event. The ledger operation has already
// committed, so a failure here is logged and swallowed.
func (s *Service) emit(ctx context.Context, eventType string, a *model.Appointment, actor model.Identity) {
	payload := model.AppointmentEvent{
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          a.Date,
		TimeSlot:      a.TimeSlot,
		Status:        a.Status,
		ActorID:       actor.UserID,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		s.logger.Warn("failed to emit appointment event",
			"event_type", eventType,
			"appointment_id", a.ID.String(),
			"error", err.Error())
	}
}

func storeErr(resource string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Internal(err)
}
