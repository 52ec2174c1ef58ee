// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// IDs are sequential integers assigned by the database. They are also the
// "sub" claim of every access token issued to the user, so they must never
// be reused while a token for them is still alive (AUTOINCREMENT guarantees this).
//
// WHY PasswordHash HAS json:"-"?
// The hash is never sent to clients, not even on the unauthenticated
// /auth/users listing. The "-" tag makes encoding/json skip the field entirely.
type User struct {
	ID           int64     `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
