// Package models defines server-side data models persisted in the database.
package models

import (
	"database/sql"
	"time"
)

// User is the principal record. Email and UserName are alternate lookup
// keys; RefreshToken mirrors the single live refresh token for the user and
// is NULL when no session is active.
type User struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	UserName      string         `json:"username"`
	FullName      string         `json:"fullName"`
	PasswordHash  string         `json:"-"`
	AvatarURL     string         `json:"avatarUrl"`
	CoverImageURL string         `json:"coverImageUrl"`
	RefreshToken  sql.NullString `json:"-"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Sanitized returns a copy safe to hand to transport layers: the password
// hash and the stored refresh token are stripped.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	c.RefreshToken = sql.NullString{}
	return &c
}
