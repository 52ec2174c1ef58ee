// Package repository declares the storage contracts the service layer depends on.
//
// Implementations return errors wrapping apperror.ErrNotFound when a row is
// missing and apperror.ErrConflict when a uniqueness constraint rejects a
// write. Services translate those into client-facing messages.
package repository

import (
	"context"
	"time"

	"github.com/flacode/shopping-list-api/internal/model"
)

// ListQuery selects one page of a user's shopping lists.
type ListQuery struct {
	Search string // substring of the name; empty matches everything
	Limit  int
	Offset int
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByLogin finds a user whose username OR email equals login.
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

// ShoppingListRepository methods that take a userID only ever touch rows
// owned by that user. A list owned by someone else is reported as not found.
type ShoppingListRepository interface {
	Create(ctx context.Context, list *model.ShoppingList) error
	GetByID(ctx context.Context, userID, id int64) (*model.ShoppingList, error)
	// List returns the requested page and the total number of matching lists.
	List(ctx context.Context, userID int64, q ListQuery) ([]model.ShoppingList, int, error)
	Update(ctx context.Context, list *model.ShoppingList) error
	Delete(ctx context.Context, userID, id int64) error
}

// ItemRepository is scoped by list. Callers check list ownership first.
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, listID, id int64) (*model.Item, error)
	FindByNameAndSource(ctx context.Context, listID int64, name, boughtFrom string) (*model.Item, error)
	ListByShoppingList(ctx context.Context, listID int64) ([]model.Item, error)
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, listID, id int64) error
}

// RevokedTokenRepository is the append-only store behind the revocation ledger.
type RevokedTokenRepository interface {
	// Insert fails with apperror.ErrConflict if the token is already present.
	Insert(ctx context.Context, token string, revokedAt time.Time) error
	Exists(ctx context.Context, token string) (bool, error)
}
