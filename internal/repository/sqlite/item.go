package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flacode/shopping-list-api/internal/apperror"
	"github.com/flacode/shopping-list-api/internal/model"
	"github.com/flacode/shopping-list-api/internal/repository"
)

var _ repository.ItemRepository = (*ItemDB)(nil)

// ItemDB stores the items of shopping lists. Every query is keyed by the
// list id as well as the item id, so an item can only be reached through
// the list that holds it.
type ItemDB struct {
	conn *sql.DB
}

const itemColumns = `id, shopping_list_id, name, quantity, bought_from, status, created_at, updated_at`

// Create inserts item and sets its ID. An item with the same name and shop
// already in the list comes back wrapped as apperror.ErrConflict.
func (i *ItemDB) Create(ctx context.Context, item *model.Item) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	res, err := i.conn.ExecContext(ctx,
		`INSERT INTO items (shopping_list_id, name, quantity, bought_from, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ShoppingListID,
		item.Name,
		item.Quantity,
		item.BoughtFrom,
		item.Status,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: item %q from %q already in list %d: %w",
				item.Name, item.BoughtFrom, item.ShoppingListID, apperror.ErrConflict)
		}
		return fmt.Errorf("sqlite: adding item to shopping list %d: %w", item.ShoppingListID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new item id: %w", err)
	}
	item.ID = id
	return nil
}

func (i *ItemDB) GetByID(ctx context.Context, listID, id int64) (*model.Item, error) {
	row := i.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND shopping_list_id = ?`,
		id, listID)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: item %d in list %d: %w", id, listID, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting item %d: %w", id, err)
	}
	return item, nil
}

// FindByNameAndSource looks for an existing item with the same name and shop
// in the list. Adding such an item again is a no-op.
func (i *ItemDB) FindByNameAndSource(ctx context.Context, listID int64, name, boughtFrom string) (*model.Item, error) {
	row := i.conn.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE shopping_list_id = ? AND name = ? AND bought_from = ?
		 ORDER BY id LIMIT 1`,
		listID, name, boughtFrom)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: item %q in list %d: %w", name, listID, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding item %q: %w", name, err)
	}
	return item, nil
}

func (i *ItemDB) ListByShoppingList(ctx context.Context, listID int64) ([]model.Item, error) {
	rows, err := i.conn.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE shopping_list_id = ? ORDER BY id`, listID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing items of shopping list %d: %w", listID, err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating item rows: %w", err)
	}
	return items, nil
}

// Update rewrites every mutable column. item.ShoppingListID may differ from
// the list the item was loaded from; that is how an item is moved. The
// caller must have checked the target list's ownership. Colliding with
// another item's name and shop yields apperror.ErrConflict.
func (i *ItemDB) Update(ctx context.Context, item *model.Item) error {
	item.UpdatedAt = time.Now().UTC()

	res, err := i.conn.ExecContext(ctx,
		`UPDATE items
		 SET shopping_list_id = ?, name = ?, quantity = ?, bought_from = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		item.ShoppingListID,
		item.Name,
		item.Quantity,
		item.BoughtFrom,
		item.Status,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: updating item %d: %w", item.ID, apperror.ErrConflict)
		}
		return fmt.Errorf("sqlite: updating item %d: %w", item.ID, err)
	}
	return expectOneRow(res, fmt.Sprintf("item %d", item.ID))
}

func (i *ItemDB) Delete(ctx context.Context, listID, id int64) error {
	res, err := i.conn.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND shopping_list_id = ?`, id, listID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting item %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("item %d in list %d", id, listID))
}

func scanItem(row rowScanner) (*model.Item, error) {
	var item model.Item
	if err := row.Scan(
		&item.ID,
		&item.ShoppingListID,
		&item.Name,
		&item.Quantity,
		&item.BoughtFrom,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
