package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/model"
)

// Store errors. Services translate these into pkg/errors values.
var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is a unique constraint violation on a natural key
	// such as a username or department name.
	ErrDuplicate = errors.New("duplicate record")
	// ErrSlotTaken means the doctor already has a Booked appointment for the date and slot.
	ErrSlotTaken = errors.New("doctor slot already booked")
	// ErrPatientDoubleBooked means the patient already has a Booked appointment for the date and slot.
	ErrPatientDoubleBooked = errors.New("patient already booked for this slot")
	// ErrStatusChanged means a compare-and-set transition found the row in another state.
	ErrStatusChanged = errors.New("appointment status changed concurrently")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		// CreatePatient inserts the user and its patient profile atomically.
		CreatePatient(ctx context.Context, user *model.User, patient *model.Patient) error
		// CreateDoctor inserts the user and its doctor profile atomically.
		CreateDoctor(ctx context.Context, user *model.User, doctor *model.Doctor) error
		CreateAdmin(ctx context.Context, user *model.User) error
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
	}

	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		// Search matches name or contact, case-insensitively.
		Search(ctx context.Context, q string) ([]*model.Patient, error)
	}

	DoctorRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		UpdateAvailability(ctx context.Context, id uuid.UUID, availability string) error
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error)
	}

	DepartmentRepository interface {
		Create(ctx context.Context, dept *model.Department) error
		Get(ctx context.Context, id uuid.UUID) (*model.Department, error)
		List(ctx context.Context) ([]*model.Department, error)
	}

	AppointmentRepository interface {
		// Book inserts a Booked appointment unless a Booked row already
		// exists for the same (doctor, date, slot), returning ErrSlotTaken,
		// or for the same (patient, date, slot), returning
		// ErrPatientDoubleBooked. The doctor check wins when both apply.
		// Check and insert are atomic with respect to concurrent Book calls.
		Book(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// Cancel moves a Booked appointment to Cancelled, or returns ErrStatusChanged.
		Cancel(ctx context.Context, id uuid.UUID) error
		// Complete moves a Booked appointment to Completed and stores its
		// treatment in the same unit of work, or returns ErrStatusChanged.
		Complete(ctx context.Context, id uuid.UUID, treatment *model.Treatment) error
		// ListByPatient orders newest date first.
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		// ListByDoctor orders oldest date first.
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
		// List orders newest date first.
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	TreatmentRepository interface {
		GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Treatment, error)
		ListByAppointments(ctx context.Context, appointmentIDs []uuid.UUID) (map[uuid.UUID]*model.Treatment, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEvents returns pending or due retry events, oldest first.
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// Store bundles every repository of one backend.
type Store struct {
	Users        UserRepository
	Patients     PatientRepository
	Doctors      DoctorRepository
	Departments  DepartmentRepository
	Appointments AppointmentRepository
	Treatments   TreatmentRepository
	Outbox       OutboxRepository
}
