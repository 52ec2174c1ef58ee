package handler

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/flacode/shopping-list-api/internal/model"
	"github.com/flacode/shopping-list-api/internal/service"
)

const (
	msgQuantityNotNumber = "Quantity must be a number"
	msgStatusNotBool     = "Status must be true or false"
	msgListIDNotInt      = "Shopping list id must be an integer"
	msgTextFieldNotText  = "Item name and bought_from must be text"
)

// ItemHandler serves /shoppinglists/{id}/items. Like the list routes it
// sits behind RequireAuth, and the service checks that the list in the path
// belongs to the caller before touching any item.
type ItemHandler struct {
	items  *service.ItemService
	logger *slog.Logger
}

func NewItemHandler(items *service.ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		items:  items,
		logger: logger,
	}
}

// itemRequest keeps every field raw. Clients send quantity as 6 or "6" and
// status as false or "false", and updates need to know which keys were sent.
type itemRequest struct {
	Name           json.RawMessage `json:"name"`
	Quantity       json.RawMessage `json:"quantity"`
	BoughtFrom     json.RawMessage `json:"bought_from"`
	Status         json.RawMessage `json:"status"`
	ShoppingListID json.RawMessage `json:"shopping_list_id"`
}

// toInput converts the request into service input. On failure it returns
// the client message for the first bad field.
func (req itemRequest) toInput() (service.ItemInput, string) {
	var in service.ItemInput
	var ok bool

	if in.Name, ok = optionalString(req.Name); !ok {
		return in, msgTextFieldNotText
	}
	if in.BoughtFrom, ok = optionalString(req.BoughtFrom); !ok {
		return in, msgTextFieldNotText
	}
	if in.Quantity, ok = flexibleFloat(req.Quantity); !ok {
		return in, msgQuantityNotNumber
	}
	if in.Status, ok = flexibleBool(req.Status); !ok {
		return in, msgStatusNotBool
	}
	if in.ShoppingListID, ok = flexibleInt(req.ShoppingListID); !ok {
		return in, msgListIDNotInt
	}
	return in, ""
}

type itemResponse struct {
	Message string      `json:"message"`
	Item    *model.Item `json:"item"`
}

// HandleAdd puts an item in a list.
//
// HTTP: POST /shoppinglists/{id}/items/
// REQUEST BODY: {"name": "sweetpotatoes", "quantity": 6, "bought_from": "kalerwe", "status": "false"}
//
// Adding an item whose name and shop are already in the list returns the
// existing item with 200 instead of 201.
func (h *ItemHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, service.MsgListNotFoundForAdd)
		return
	}
	var req itemRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	in, msg := req.toInput()
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	item, created, err := h.items.Add(r.Context(), userID, listID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, itemResponse{Message: "Item already in shopping list", Item: item})
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{Message: "Item added to shopping list", Item: item})
}

// HandleList returns the items of a list.
//
// HTTP: GET /shoppinglists/{id}/items/
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, service.MsgListNotFound)
		return
	}

	items, err := h.items.List(r.Context(), userID, listID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if len(items) == 0 {
		writeMessage(w, http.StatusOK, "Shopping list is empty")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Items": items})
}

// HandleUpdate changes the supplied fields of an item. Sending
// shopping_list_id moves the item to another of the caller's lists.
//
// HTTP: PUT /shoppinglists/{id}/items/{item_id}
func (h *ItemHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, itemID, ok := itemPath(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	in, msg := req.toInput()
	if msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.items.Update(r.Context(), userID, listID, itemID, in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Item updated")
}

// HandleDelete removes an item from a list.
//
// HTTP: DELETE /shoppinglists/{id}/items/{item_id}
func (h *ItemHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	listID, itemID, ok := itemPath(w, r)
	if !ok {
		return
	}

	if err := h.items.Delete(r.Context(), userID, listID, itemID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Item successfully deleted from shopping list")
}

// itemPath reads {id} and {item_id}, answering 404 when either is not an id.
func itemPath(w http.ResponseWriter, r *http.Request) (listID, itemID int64, ok bool) {
	if listID, ok = pathID(r, "id"); !ok {
		writeMessage(w, http.StatusNotFound, service.MsgListNotFoundForUpdate)
		return 0, 0, false
	}
	if itemID, ok = pathID(r, "item_id"); !ok {
		writeMessage(w, http.StatusNotFound, service.MsgItemNotFound)
		return 0, 0, false
	}
	return listID, itemID, true
}

// flexibleFloat accepts a JSON number or a string holding a finite one.
func flexibleFloat(raw json.RawMessage) (*float64, bool) {
	if !present(raw) {
		return nil, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &f, true
}

// flexibleBool accepts a JSON bool or a string strconv.ParseBool understands.
func flexibleBool(raw json.RawMessage) (*bool, bool) {
	if !present(raw) {
		return nil, true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	return &b, true
}

func flexibleInt(raw json.RawMessage) (*int64, bool) {
	if !present(raw) {
		return nil, true
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}
