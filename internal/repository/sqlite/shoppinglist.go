package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flacode/shopping-list-api/internal/apperror"
	"github.com/flacode/shopping-list-api/internal/model"
	"github.com/flacode/shopping-list-api/internal/repository"
)

var _ repository.ShoppingListRepository = (*ShoppingListDB)(nil)

// ShoppingListDB stores shopping lists.
//
// OWNERSHIP IN THE WHERE CLAUSE:
// Every read and write includes "AND user_id = ?". A list that exists but
// belongs to someone else is indistinguishable from one that doesn't exist,
// which is exactly what callers should see.
type ShoppingListDB struct {
	conn *sql.DB
}

const listColumns = `id, name, due_date, user_id, created_at, updated_at`

func (s *ShoppingListDB) Create(ctx context.Context, list *model.ShoppingList) error {
	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO shopping_lists (name, due_date, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		list.Name,
		nullableString(list.DueDate),
		list.UserID,
		list.CreatedAt,
		list.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating shopping list for user %d: %w", list.UserID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new shopping list id: %w", err)
	}
	list.ID = id
	return nil
}

func (s *ShoppingListDB) GetByID(ctx context.Context, userID, id int64) (*model.ShoppingList, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM shopping_lists WHERE id = ? AND user_id = ?`,
		id, userID)

	list, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: shopping list %d: %w", id, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting shopping list %d: %w", id, err)
	}
	return list, nil
}

// List returns one page of the user's lists, ordered by due date (undated
// lists first) then id, plus the number of lists matching the search.
//
// SEARCH ESCAPING:
// The search text goes through LIKE, where % and _ are wildcards. They are
// escaped so a user searching for "50%" gets a literal match.
func (s *ShoppingListDB) List(ctx context.Context, userID int64, q repository.ListQuery) ([]model.ShoppingList, int, error) {
	pattern := escapeLike(q.Search)

	var total int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shopping_lists
		 WHERE user_id = ? AND name LIKE '%' || ? || '%' ESCAPE '\'`,
		userID, pattern,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting shopping lists for user %d: %w", userID, err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+listColumns+` FROM shopping_lists
		 WHERE user_id = ? AND name LIKE '%' || ? || '%' ESCAPE '\'
		 ORDER BY due_date, id
		 LIMIT ? OFFSET ?`,
		userID, pattern, q.Limit, q.Offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing shopping lists for user %d: %w", userID, err)
	}
	defer rows.Close()

	lists := make([]model.ShoppingList, 0, q.Limit)
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning shopping list row: %w", err)
		}
		lists = append(lists, *list)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating shopping list rows: %w", err)
	}

	return lists, total, nil
}

// Update writes name and due date back. list.UserID scopes the write.
func (s *ShoppingListDB) Update(ctx context.Context, list *model.ShoppingList) error {
	list.UpdatedAt = time.Now().UTC()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE shopping_lists SET name = ?, due_date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		list.Name,
		nullableString(list.DueDate),
		list.UpdatedAt,
		list.ID,
		list.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating shopping list %d: %w", list.ID, err)
	}
	return expectOneRow(res, fmt.Sprintf("shopping list %d", list.ID))
}

// Delete removes the list and, through ON DELETE CASCADE, its items.
func (s *ShoppingListDB) Delete(ctx context.Context, userID, id int64) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM shopping_lists WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting shopping list %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("shopping list %d", id))
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (*model.ShoppingList, error) {
	var (
		list model.ShoppingList
		due  sql.NullString
	)
	if err := row.Scan(
		&list.ID,
		&list.Name,
		&due,
		&list.UserID,
		&list.CreatedAt,
		&list.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if due.Valid {
		list.DueDate = &due.String
	}
	return &list, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
