package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

type patientRepository struct {
	BaseRepository
}

type doctorRepository struct {
	BaseRepository
}

type departmentRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type treatmentRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{NewBaseRepository(db)}
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{NewBaseRepository(db)}
}

func NewDepartmentRepository(db *sqlx.DB) repository.DepartmentRepository {
	return &departmentRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewTreatmentRepository(db *sqlx.DB) repository.TreatmentRepository {
	return &treatmentRepository{NewBaseRepository(db)}
}

// NewStore wires every postgres repository onto one connection pool.
func NewStore(db *sqlx.DB) *repository.Store {
	return &repository.Store{
		Users:        NewUserRepository(db),
		Patients:     NewPatientRepository(db),
		Doctors:      NewDoctorRepository(db),
		Departments:  NewDepartmentRepository(db),
		Appointments: NewAppointmentRepository(db),
		Treatments:   NewTreatmentRepository(db),
		Outbox:       NewOutboxRepository(NewBaseRepository(db)),
	}
}
