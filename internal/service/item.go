package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flacode/shopping-list-api/internal/apperror"
	"github.com/flacode/shopping-list-api/internal/model"
	"github.com/flacode/shopping-list-api/internal/repository"
)

const (
	MsgListNotFoundForAdd    = "Shopping list can not be found to add items"
	MsgListNotFoundForUpdate = "Shopping list can not be found to update items"
	MsgItemMissing           = "Missing required fields for creating item"
	MsgItemNameEmpty         = "Item name can not be empty"
	MsgItemNotFound          = "Item can not be found in shopping list"
	MsgMoveTargetNotFound    = "Can not move item to not existent shopping list"
	MsgItemExists            = "Item with the same name and shop already exists in shopping list"
)

// ItemService manages the items of shopping lists.
//
// Items are reached through their list: each method first loads the list
// with the caller's userID, then touches only items of that list.
type ItemService struct {
	lists  repository.ShoppingListRepository
	items  repository.ItemRepository
	logger *slog.Logger
}

func NewItemService(lists repository.ShoppingListRepository, items repository.ItemRepository, logger *slog.Logger) *ItemService {
	return &ItemService{
		lists:  lists,
		items:  items,
		logger: logger,
	}
}

// ItemInput carries item fields. For Add every field is required; for
// Update nil means "leave as is". ShoppingListID is only used by Update,
// to move the item to another of the caller's lists.
type ItemInput struct {
	Name           *string
	Quantity       *float64
	BoughtFrom     *string
	Status         *bool
	ShoppingListID *int64
}

// Add puts a new item in the list. Adding an item whose name and shop match
// one already in the list changes nothing; the existing item is returned
// with created == false. That holds for concurrent adds too: the loser of
// the insert gets the winner's item.
func (s *ItemService) Add(ctx context.Context, userID, listID int64, in ItemInput) (item *model.Item, created bool, err error) {
	if _, err := s.ownedList(ctx, userID, listID, MsgListNotFoundForAdd); err != nil {
		return nil, false, err
	}

	if in.Name == nil || in.Quantity == nil || in.BoughtFrom == nil || in.Status == nil {
		return nil, false, apperror.ValidationFailed("", MsgItemMissing)
	}
	name := strings.TrimSpace(*in.Name)
	if name == "" {
		return nil, false, apperror.ValidationFailed("name", MsgItemMissing)
	}
	boughtFrom := strings.TrimSpace(*in.BoughtFrom)

	existing, err := s.items.FindByNameAndSource(ctx, listID, name, boughtFrom)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, false, fmt.Errorf("service/item: checking for duplicate item: %w", err)
	}

	item = &model.Item{
		ShoppingListID: listID,
		Name:           name,
		Quantity:       *in.Quantity,
		BoughtFrom:     boughtFrom,
		Status:         *in.Status,
	}
	if err := s.items.Create(ctx, item); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			existing, findErr := s.items.FindByNameAndSource(ctx, listID, name, boughtFrom)
			if findErr != nil {
				return nil, false, fmt.Errorf("service/item: loading item added concurrently: %w", findErr)
			}
			return existing, false, nil
		}
		s.logger.Error("failed to add item",
			slog.Int64("listID", listID),
			slog.String("error", err.Error()),
		)
		return nil, false, fmt.Errorf("service/item: adding item: %w", err)
	}

	s.logger.Info("item added",
		slog.Int64("listID", listID),
		slog.Int64("itemID", item.ID),
	)
	return item, true, nil
}

func (s *ItemService) List(ctx context.Context, userID, listID int64) ([]model.Item, error) {
	if _, err := s.ownedList(ctx, userID, listID, MsgListNotFound); err != nil {
		return nil, err
	}
	items, err := s.items.ListByShoppingList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("service/item: listing items of list %d: %w", listID, err)
	}
	return items, nil
}

// Update changes the supplied fields. The item must belong to listID, and
// listID must belong to the caller. Moving the item requires the target
// list to belong to the caller too. A rename or move that would collide
// with another item's name and shop is rejected.
func (s *ItemService) Update(ctx context.Context, userID, listID, itemID int64, in ItemInput) (*model.Item, error) {
	item, err := s.ownedItem(ctx, userID, listID, itemID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", MsgItemNameEmpty)
		}
		item.Name = name
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.BoughtFrom != nil {
		item.BoughtFrom = strings.TrimSpace(*in.BoughtFrom)
	}
	if in.Status != nil {
		item.Status = *in.Status
	}
	if in.ShoppingListID != nil && *in.ShoppingListID != listID {
		if _, err := s.ownedList(ctx, userID, *in.ShoppingListID, MsgMoveTargetNotFound); err != nil {
			return nil, err
		}
		item.ShoppingListID = *in.ShoppingListID
	}

	if err := s.items.Update(ctx, item); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(MsgItemNotFound)
		}
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("name", MsgItemExists)
		}
		return nil, fmt.Errorf("service/item: updating item %d: %w", itemID, err)
	}

	s.logger.Info("item updated",
		slog.Int64("listID", item.ShoppingListID),
		slog.Int64("itemID", itemID),
	)
	return item, nil
}

func (s *ItemService) Delete(ctx context.Context, userID, listID, itemID int64) error {
	if _, err := s.ownedItem(ctx, userID, listID, itemID); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, listID, itemID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound(MsgItemNotFound)
		}
		return fmt.Errorf("service/item: deleting item %d: %w", itemID, err)
	}
	s.logger.Info("item deleted",
		slog.Int64("listID", listID),
		slog.Int64("itemID", itemID),
	)
	return nil
}

// ownedList loads the caller's list, turning "not found" into notFoundMsg.
func (s *ItemService) ownedList(ctx context.Context, userID, listID int64, notFoundMsg string) (*model.ShoppingList, error) {
	list, err := s.lists.GetByID(ctx, userID, listID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(notFoundMsg)
		}
		return nil, fmt.Errorf("service/item: fetching list %d: %w", listID, err)
	}
	return list, nil
}

func (s *ItemService) ownedItem(ctx context.Context, userID, listID, itemID int64) (*model.Item, error) {
	if _, err := s.ownedList(ctx, userID, listID, MsgListNotFoundForUpdate); err != nil {
		return nil, err
	}
	item, err := s.items.GetByID(ctx, listID, itemID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound(MsgItemNotFound)
		}
		return nil, fmt.Errorf("service/item: fetching item %d: %w", itemID, err)
	}
	return item, nil
}
