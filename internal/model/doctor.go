package model

import (
	"github.com/google/uuid"
)

type Doctor struct {
	Base
	UserID         uuid.UUID  `db:"user_id" json:"user_id"`
	FullName       string     `db:"full_name" json:"full_name"`
	Specialization string     `db:"specialization" json:"specialization"`
	Availability   string     `db:"availability" json:"availability"`
	DepartmentID   *uuid.UUID `db:"department_id" json:"department_id,omitempty"`
	Active         bool       `db:"active" json:"active"`
}

type CreateDoctorRequest struct {
	Username       string     `json:"username" binding:"required,min=3,max=80"`
	Password       string     `json:"password" binding:"required,min=8"`
	FullName       string     `json:"full_name" binding:"required,max=120"`
	Specialization string     `json:"specialization" binding:"required,max=120"`
	DepartmentID   *uuid.UUID `json:"department_id"`
}

type UpdateDoctorRequest struct {
	FullName       *string    `json:"full_name" binding:"omitempty,min=1,max=120"`
	Specialization *string    `json:"specialization" binding:"omitempty,min=1,max=120"`
	DepartmentID   *uuid.UUID `json:"department_id"`
}

type UpdateAvailabilityRequest struct {
	Availability string `json:"availability" binding:"max=2000"`
}

type DoctorFilters struct {
	Name            string
	Specialization  string
	IncludeInactive bool
}
