package models

import "time"

// User is a registered account. PasswordHash is a one-way encoding produced
// by auth.HashPassword; IsActive is flipped only by the admin tool.
type User struct {
	ID           int64
	Email        string
	UserName     string
	PasswordHash string
	FullName     *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
