package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flacode/shopping-list-api/internal/apperror"
	"github.com/flacode/shopping-list-api/internal/model"
	"github.com/flacode/shopping-list-api/internal/repository"
)

func createTestList(t *testing.T, s *ShoppingListDB, userID int64, name string, due *string) *model.ShoppingList {
	t.Helper()
	list := &model.ShoppingList{Name: name, DueDate: due, UserID: userID}
	if err := s.Create(context.Background(), list); err != nil {
		t.Fatalf("failed to create test list: %v", err)
	}
	return list
}

func date(s string) *string { return &s }

func TestShoppingListCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "flacode")
	lists := db.ShoppingLists()

	created := createTestList(t, lists, owner.ID, "bakery", date("2017-08-17"))
	require.NotZero(t, created.ID)

	found, err := lists.GetByID(context.Background(), owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "bakery", found.Name)
	require.NotNil(t, found.DueDate)
	assert.Equal(t, "2017-08-17", *found.DueDate)
	assert.Equal(t, owner.ID, found.UserID)
}

func TestShoppingListCreate_NoDueDate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "flacode")
	lists := db.ShoppingLists()

	created := createTestList(t, lists, owner.ID, "someday", nil)

	found, err := lists.GetByID(context.Background(), owner.ID, created.ID)
	require.NoError(t, err)
	assert.Nil(t, found.DueDate)
}

func TestShoppingListCreate_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.ShoppingLists().Create(context.Background(), &model.ShoppingList{Name: "orphan", UserID: 999})

	assert.Error(t, err, "foreign key should reject a list for a missing user")
}

// =========================================================================
// OWNERSHIP TESTS
// =========================================================================

func TestShoppingList_OtherUsersListIsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db.Users(), "alice")
	bob := createTestUser(t, db.Users(), "bob")
	lists := db.ShoppingLists()

	alicesList := createTestList(t, lists, alice.ID, "groceries", nil)

	_, err := lists.GetByID(ctx, bob.ID, alicesList.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "GetByID: %v", err)

	err = lists.Update(ctx, &model.ShoppingList{ID: alicesList.ID, UserID: bob.ID, Name: "mine now"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "Update: %v", err)

	err = lists.Delete(ctx, bob.ID, alicesList.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "Delete: %v", err)

	// Alice's list is untouched.
	found, err := lists.GetByID(ctx, alice.ID, alicesList.ID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", found.Name)
}

// =========================================================================
// LIST / SEARCH / PAGINATION TESTS
// =========================================================================

func TestShoppingListList_OrderedByDueDate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "flacode")
	lists := db.ShoppingLists()

	createTestList(t, lists, owner.ID, "third", date("2017-09-01"))
	createTestList(t, lists, owner.ID, "first", date("2017-07-01"))
	createTestList(t, lists, owner.ID, "second", date("2017-08-01"))

	page, total, err := lists.List(context.Background(), owner.ID, repository.ListQuery{Limit: 2, Offset: 0})
	require.NoError(t, err)

	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "first", page[0].Name)
	assert.Equal(t, "second", page[1].Name)
}

func TestShoppingListList_PageBeyondData(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "flacode")
	lists := db.ShoppingLists()
	for i := range 3 {
		createTestList(t, lists, owner.ID, fmt.Sprintf("list-%d", i), nil)
	}

	page, total, err := lists.List(context.Background(), owner.ID, repository.ListQuery{Limit: 10, Offset: 10})
	require.NoError(t, err)

	assert.Equal(t, 3, total)
	assert.Empty(t, page)
}

func TestShoppingListList_Search(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "flacode")
	other := createTestUser(t, db.Users(), "other")
	lists := db.ShoppingLists()

	createTestList(t, lists, owner.ID, "bakery", nil)
	createTestList(t, lists, owner.ID, "hardware", nil)
	createTestList(t, lists, other.ID, "bakery run", nil)

	page, total, err := lists.List(context.Background(), owner.ID, repository.ListQuery{Search: "bake", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	require.Len(t, page, 1)
	assert.Equal(t, "bakery", page[0].Name)
}

func TestShoppingListList_SearchEscapesWildcards(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "flacode")
	lists := db.ShoppingLists()

	createTestList(t, lists, owner.ID, "50% off", nil)
	createTestList(t, lists, owner.ID, "500 things", nil)
	createTestList(t, lists, owner.ID, "a_b", nil)
	createTestList(t, lists, owner.ID, "axb", nil)

	tests := []struct {
		search string
		want   []string
	}{
		{"50%", []string{"50% off"}},
		{"a_b", []string{"a_b"}},
		{"", []string{"50% off", "500 things", "a_b", "axb"}},
	}

	for _, tt := range tests {
		t.Run("q="+tt.search, func(t *testing.T) {
			page, _, err := lists.List(context.Background(), owner.ID, repository.ListQuery{Search: tt.search, Limit: 10})
			require.NoError(t, err)

			var names []string
			for _, l := range page {
				names = append(names, l.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestShoppingListUpdate(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db.Users(), "flacode")
	lists := db.ShoppingLists()
	list := createTestList(t, lists, owner.ID, "bakery", nil)

	list.Name = "butcher"
	list.DueDate = date("2018-01-01")
	require.NoError(t, lists.Update(context.Background(), list))

	found, err := lists.GetByID(context.Background(), owner.ID, list.ID)
	require.NoError(t, err)
	assert.Equal(t, "butcher", found.Name)
	assert.Equal(t, "2018-01-01", *found.DueDate)
}

func TestShoppingListDelete_CascadesItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db.Users(), "flacode")
	list := createTestList(t, db.ShoppingLists(), owner.ID, "bakery", nil)
	createTestItem(t, db.Items(), list.ID, "bread", "kalerwe")

	require.NoError(t, db.ShoppingLists().Delete(ctx, owner.ID, list.ID))

	items, err := db.Items().ListByShoppingList(ctx, list.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%`, escapeLike("50%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
