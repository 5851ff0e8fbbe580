package entities

import "github.com/google/uuid"

// AdminRole is the only role the admin API knows
const AdminRole = "admin"

// Admin is the single configured operator account
type Admin struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id,omitempty"`
	Admin        *Admin `json:"admin"`
}
