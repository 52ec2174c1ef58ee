package model

import "time"

// DateLayout is the calendar-date format accepted and returned for due dates.
const DateLayout = "2006-01-02"

// ShoppingList is a named list owned by exactly one user.
//
// DueDate is a pointer because it is optional: nil encodes as JSON null.
// It is kept as the literal "YYYY-MM-DD" string (validated on write), which
// also sorts correctly as TEXT in SQLite.
type ShoppingList struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	DueDate   *string   `json:"due_date"`
	UserID    int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
