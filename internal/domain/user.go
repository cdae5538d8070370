package domain

import "time"

// Roles soportados para identidades.
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
