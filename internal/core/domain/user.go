package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User models an account in the credential store.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
