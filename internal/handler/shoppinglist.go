package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/flacode/shopping-list-api/internal/auth"
	"github.com/flacode/shopping-list-api/internal/model"
	"github.com/flacode/shopping-list-api/internal/service"
)

// ShoppingListHandler serves /shoppinglists. Every route sits behind
// RequireAuth; the caller's user ID comes from the request context and is
// handed to the service, which scopes every query by it.
type ShoppingListHandler struct {
	lists  *service.ShoppingListService
	logger *slog.Logger
}

func NewShoppingListHandler(lists *service.ShoppingListService, logger *slog.Logger) *ShoppingListHandler {
	return &ShoppingListHandler{
		lists:  lists,
		logger: logger,
	}
}

// listRequest uses json.RawMessage so that "key absent", "key is null" and
// "key has a value" can be told apart.
type listRequest struct {
	Name    json.RawMessage `json:"name"`
	DueDate json.RawMessage `json:"due_date"`
}

type listCreatedResponse struct {
	Message      string              `json:"message"`
	ShoppingList *model.ShoppingList `json:"shopping_list"`
}

// HandleCreate creates a list.
//
// HTTP: POST /shoppinglists/
// REQUEST BODY: {"name": "bakery", "due_date": "2017-08-17"}
func (h *ShoppingListHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req listRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	name, ok := optionalString(req.Name)
	if !ok || name == nil {
		writeMessage(w, http.StatusBadRequest, service.MsgListMissing)
		return
	}
	due, ok := optionalString(req.DueDate)
	if !ok {
		writeMessage(w, http.StatusBadRequest, service.MsgBadDueDate)
		return
	}

	list, err := h.lists.Create(r.Context(), userID, *name, due)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, listCreatedResponse{
		Message:      "Shopping list created.",
		ShoppingList: list,
	})
}

// ListsResponse is one page of the caller's lists.
type ListsResponse struct {
	ShoppingLists []model.ShoppingList `json:"shopping_lists"`
	Total         int                  `json:"total"`
	Page          int                  `json:"page"`
	Limit         int                  `json:"limit"`
}

// HandleList returns one page of the caller's lists.
//
// HTTP: GET /shoppinglists/?q=bak&limit=10&page=1
//
// A limit or page that isn't an integer falls back to its default. An empty
// page is answered with 200 and a message explaining why it is empty.
func (h *ShoppingListHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	res, err := h.lists.List(r.Context(), userID, service.ListParams{
		Query: query.Get("q"),
		Limit: queryInt(query.Get("limit")),
		Page:  queryInt(query.Get("page")),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if res.EmptyMessage != "" {
		writeMessage(w, http.StatusOK, res.EmptyMessage)
		return
	}
	writeJSON(w, http.StatusOK, ListsResponse{
		ShoppingLists: res.Lists,
		Total:         res.Total,
		Page:          res.Page,
		Limit:         res.Limit,
	})
}

// HandleGet returns one list.
//
// HTTP: GET /shoppinglists/{id}
func (h *ShoppingListHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, service.MsgListNotFound)
		return
	}

	list, err := h.lists.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shopping list": list})
}

// HandleUpdate changes the name and/or due date of a list. Keys that are
// absent or null leave the stored value alone.
//
// HTTP: PUT /shoppinglists/{id}
func (h *ShoppingListHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, service.MsgListNotFound)
		return
	}
	var req listRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	var patch service.ListPatch
	if patch.Name, ok = optionalString(req.Name); !ok {
		writeMessage(w, http.StatusBadRequest, service.MsgListNameEmpty)
		return
	}
	if patch.DueDate, ok = optionalString(req.DueDate); !ok {
		writeMessage(w, http.StatusBadRequest, service.MsgBadDueDate)
		return
	}

	if _, err := h.lists.Update(r.Context(), userID, id, patch); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Shopping list has been updated")
}

// HandleDelete removes a list and its items.
//
// HTTP: DELETE /shoppinglists/{id}
func (h *ShoppingListHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, service.MsgListNotFound)
		return
	}

	if err := h.lists.Delete(r.Context(), userID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Shopping list successfully deleted")
}

// requireUser reads the user ID RequireAuth stored in the context.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// should never happen on a RequireAuth-protected route
		writeMessage(w, http.StatusUnauthorized, "Please register or login.")
		return 0, false
	}
	return userID, true
}

// queryInt parses a query parameter; anything that isn't an integer is 0,
// which the service turns into the default.
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// present reports whether a JSON key was supplied with a non-null value.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// optionalString decodes a string field. It returns nil for an absent or
// null key and ok == false when the value is not a string.
func optionalString(raw json.RawMessage) (s *string, ok bool) {
	if !present(raw) {
		return nil, true
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return &v, true
}
