package model

import "time"

// Item is a line in a shopping list. Status is the purchased flag.
type Item struct {
	ID             int64     `json:"id"`
	ShoppingListID int64     `json:"shopping_list_id"`
	Name           string    `json:"name"`
	Quantity       float64   `json:"quantity"`
	BoughtFrom     string    `json:"bought_from"`
	Status         bool      `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RevokedToken is a ledger entry: a token string invalidated before expiry.
// Rows are only ever inserted.
type RevokedToken struct {
	ID        int64
	Token     string
	RevokedAt time.Time
}
