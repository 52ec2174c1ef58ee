// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// OWNERSHIP:
// Every shopping-list and item method takes the caller's userID, which the
// access gate resolved from the token. It is passed down to the repository,
// so a user can never see or change another user's data. Someone else's
// list is reported exactly like a list that doesn't exist.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/flacode/shopping-list-api/internal/apperror"
	"github.com/flacode/shopping-list-api/internal/model"
	"github.com/flacode/shopping-list-api/internal/repository"
)

// Pagination defaults for the list view.
const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

const (
	MsgListMissing    = "Missing attributes, shopping list not created."
	MsgListNameEmpty  = "Shopping list name can not be empty"
	MsgBadDueDate     = "Due date must be in the format YYYY-MM-DD"
	MsgListNotFound   = "Shopping list can not be found"
	MsgNoListsYet     = "No shopping lists created yet."
	MsgNoSearchMatch  = "Shopping list to match the search key not found."
	MsgPageEmpty      = "There are no shopping lists on this page."
	maxListNameLength = 200
)

type ShoppingListService struct {
	repo   repository.ShoppingListRepository
	logger *slog.Logger
}

func NewShoppingListService(repo repository.ShoppingListRepository, logger *slog.Logger) *ShoppingListService {
	return &ShoppingListService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new list owned by userID.
// dueDate is optional; nil or "" means no due date.
func (s *ShoppingListService) Create(ctx context.Context, userID int64, name string, dueDate *string) (*model.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", MsgListMissing)
	}
	if len(name) > maxListNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("Shopping list name must be %d characters or less", maxListNameLength))
	}
	due, err := normalizeDueDate(dueDate)
	if err != nil {
		return nil, err
	}

	list := &model.ShoppingList{
		Name:    name,
		DueDate: due,
		UserID:  userID,
	}
	if err := s.repo.Create(ctx, list); err != nil {
		s.logger.Error("failed to create shopping list",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/list: creating list: %w", err)
	}

	s.logger.Info("shopping list created",
		slog.Int64("userID", userID),
		slog.Int64("listID", list.ID),
	)
	return list, nil
}

// ListParams are the query-string options of the list view.
// Zero values select the defaults.
type ListParams struct {
	Query string
	Limit int
	Page  int // 1-indexed
}

// ListResult is one page of lists. When Lists is empty, EmptyMessage says
// which of the three empty states applies.
type ListResult struct {
	Lists        []model.ShoppingList
	Total        int
	Page         int
	Limit        int
	EmptyMessage string
}

// List returns one page of the user's lists ordered by due date.
//
// EMPTY STATES:
// "nothing exists", "nothing matches the search" and "page past the end"
// are different situations for the client, so each gets its own message.
func (s *ShoppingListService) List(ctx context.Context, userID int64, p ListParams) (*ListResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	// keep the offset from overflowing into a negative number, which
	// SQLite would read as 0
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	query := strings.TrimSpace(p.Query)

	lists, total, err := s.repo.List(ctx, userID, repository.ListQuery{
		Search: query,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/list: listing lists for user %d: %w", userID, err)
	}

	res := &ListResult{
		Lists: lists,
		Total: total,
		Page:  page,
		Limit: limit,
	}
	switch {
	case total == 0 && query != "":
		res.EmptyMessage = MsgNoSearchMatch
	case total == 0:
		res.EmptyMessage = MsgNoListsYet
	case len(lists) == 0:
		res.EmptyMessage = MsgPageEmpty
	}
	return res, nil
}

func (s *ShoppingListService) Get(ctx context.Context, userID, id int64) (*model.ShoppingList, error) {
	list, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(MsgListNotFound)
		}
		return nil, fmt.Errorf("service/list: fetching list %d: %w", id, err)
	}
	return list, nil
}

// ListPatch holds the fields an update may change. nil leaves the stored
// value alone.
type ListPatch struct {
	Name    *string
	DueDate *string
}

func (s *ShoppingListService) Update(ctx context.Context, userID, id int64, patch ListPatch) (*model.ShoppingList, error) {
	list, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", MsgListNameEmpty)
		}
		list.Name = name
	}
	if patch.DueDate != nil {
		due, err := normalizeDueDate(patch.DueDate)
		if err != nil {
			return nil, err
		}
		list.DueDate = due
	}

	if err := s.repo.Update(ctx, list); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(MsgListNotFound)
		}
		return nil, fmt.Errorf("service/list: updating list %d: %w", id, err)
	}

	s.logger.Info("shopping list updated", slog.Int64("listID", id))
	return list, nil
}

// Delete removes the list and its items.
func (s *ShoppingListService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound(MsgListNotFound)
		}
		return fmt.Errorf("service/list: deleting list %d: %w", id, err)
	}
	s.logger.Info("shopping list deleted", slog.Int64("listID", id))
	return nil
}

// normalizeDueDate checks the YYYY-MM-DD format. An empty string clears
// the due date.
func normalizeDueDate(due *string) (*string, error) {
	if due == nil {
		return nil, nil
	}
	d := strings.TrimSpace(*due)
	if d == "" {
		return nil, nil
	}
	if _, err := time.Parse(model.DateLayout, d); err != nil {
		return nil, apperror.ValidationFailed("due_date", MsgBadDueDate)
	}
	return &d, nil
}
