package model

import (
	"errors"
)

// AuthRequest types
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=80"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required,max=120"`
	Contact  string `json:"contact" binding:"max=50"`
}

// AuthResponse types
type TokenResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	Identity    Identity `json:"identity"`
}

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)
