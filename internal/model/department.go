package model

type Department struct {
	Base
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

type CreateDepartmentRequest struct {
	Name        string `json:"name" binding:"required,max=120"`
	Description string `json:"description"`
}
