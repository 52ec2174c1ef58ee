package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flacode/shopping-list-api/internal/apperror"
	"github.com/flacode/shopping-list-api/internal/model"
	"github.com/flacode/shopping-list-api/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================
//
// In-memory implementations of the repository interfaces. They follow the
// same contracts as the sqlite stores: ErrConflict on duplicates,
// ErrNotFound on misses, lists scoped by owner.

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64
	// set to a non-nil error to simulate a database failure
	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("fake: %w", apperror.ErrConflict)
		}
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByLogin(_ context.Context, login string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Username == login || u.Email == login {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeUserRepo) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeListRepo struct {
	mu     sync.Mutex
	lists  map[int64]*model.ShoppingList
	nextID int64
	// last query seen by List, for pagination assertions
	lastQuery repository.ListQuery
	listErr   error
}

var _ repository.ShoppingListRepository = (*fakeListRepo)(nil)

func newFakeListRepo() *fakeListRepo {
	return &fakeListRepo{lists: make(map[int64]*model.ShoppingList), nextID: 1}
}

func (f *fakeListRepo) Create(_ context.Context, list *model.ShoppingList) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list.ID = f.nextID
	f.nextID++
	copied := *list
	f.lists[list.ID] = &copied
	return nil
}

func (f *fakeListRepo) GetByID(_ context.Context, userID, id int64) (*model.ShoppingList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lists[id]
	if !ok || l.UserID != userID {
		return nil, apperror.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (f *fakeListRepo) List(_ context.Context, userID int64, q repository.ListQuery) ([]model.ShoppingList, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var matched []model.ShoppingList
	for _, l := range f.lists {
		if l.UserID == userID && strings.Contains(l.Name, q.Search) {
			matched = append(matched, *l)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	if q.Offset >= total {
		return []model.ShoppingList{}, total, nil
	}
	end := min(q.Offset+q.Limit, total)
	return matched[q.Offset:end], total, nil
}

func (f *fakeListRepo) Update(_ context.Context, list *model.ShoppingList) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lists[list.ID]
	if !ok || l.UserID != list.UserID {
		return apperror.ErrNotFound
	}
	copied := *list
	f.lists[list.ID] = &copied
	return nil
}

func (f *fakeListRepo) Delete(_ context.Context, userID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lists[id]
	if !ok || l.UserID != userID {
		return apperror.ErrNotFound
	}
	delete(f.lists, id)
	return nil
}

type fakeItemRepo struct {
	mu     sync.Mutex
	items  map[int64]*model.Item
	nextID int64
	// findMisses makes the next N FindByNameAndSource calls report
	// not found, as if another request inserted the item right after.
	findMisses int
}

var _ repository.ItemRepository = (*fakeItemRepo)(nil)

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[int64]*model.Item), nextID: 1}
}

// duplicateLocked mirrors the unique (list, name, shop) index.
func (f *fakeItemRepo) duplicateLocked(item *model.Item) bool {
	for id, it := range f.items {
		if id != item.ID && it.ShoppingListID == item.ShoppingListID &&
			it.Name == item.Name && it.BoughtFrom == item.BoughtFrom {
			return true
		}
	}
	return false
}

func (f *fakeItemRepo) Create(_ context.Context, item *model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.duplicateLocked(item) {
		return fmt.Errorf("fake: %w", apperror.ErrConflict)
	}
	item.ID = f.nextID
	f.nextID++
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeItemRepo) GetByID(_ context.Context, listID, id int64) (*model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok || it.ShoppingListID != listID {
		return nil, apperror.ErrNotFound
	}
	copied := *it
	return &copied, nil
}

func (f *fakeItemRepo) FindByNameAndSource(_ context.Context, listID int64, name, boughtFrom string) (*model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findMisses > 0 {
		f.findMisses--
		return nil, apperror.ErrNotFound
	}
	for _, it := range f.items {
		if it.ShoppingListID == listID && it.Name == name && it.BoughtFrom == boughtFrom {
			copied := *it
			return &copied, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (f *fakeItemRepo) ListByShoppingList(_ context.Context, listID int64) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Item{}
	for _, it := range f.items {
		if it.ShoppingListID == listID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeItemRepo) Update(_ context.Context, item *model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[item.ID]; !ok {
		return apperror.ErrNotFound
	}
	if f.duplicateLocked(item) {
		return fmt.Errorf("fake: %w", apperror.ErrConflict)
	}
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeItemRepo) Delete(_ context.Context, listID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok || it.ShoppingListID != listID {
		return apperror.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func ptr[T any](v T) *T { return &v }
