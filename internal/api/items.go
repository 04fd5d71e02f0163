package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/zaloga/internal/imaging"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

const (
	// MaxBulkCreate caps the number of drafts in one bulk create.
	MaxBulkCreate = 100
	// MaxBulkDelete caps the number of ids in one bulk delete.
	MaxBulkDelete = 500
)

// ItemsHandler handles item endpoints. Every item is scoped to the caller.
type ItemsHandler struct {
	DB *sql.DB
}

type statusRequest struct {
	Status string `json:"status"`
}

type bulkCreateRequest struct {
	Items []model.Draft `json:"items"`
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ItemFilter{
		Status:    filterValue(q.Get("status")),
		Category:  filterValue(q.Get("category")),
		Frequency: filterValue(q.Get("frequency")),
		Search:    q.Get("search"),
	}

	errs := model.FieldErrors{}
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		errs.Add("status", "invalid status")
	}
	if filter.Category != "" && !model.ValidCategory(filter.Category) {
		errs.Add("category", "invalid category")
	}
	if filter.Frequency != "" && !model.ValidFrequency(filter.Frequency) {
		errs.Add("frequency", "invalid frequency")
	}
	if !errs.Empty() {
		jsonValidation(w, errs)
		return
	}

	h.list(w, r, filter)
}

// Search handles GET /api/items/search.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		jsonValidation(w, model.FieldErrors{"q": {"search query is required"}})
		return
	}
	h.list(w, r, store.ItemFilter{Search: query})
}

func (h *ItemsHandler) list(w http.ResponseWriter, r *http.Request, filter store.ItemFilter) {
	items, err := store.ListItems(r.Context(), h.DB, userID(r), filter)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d.Normalize()
	if errs := d.Validate(); !errs.Empty() {
		jsonValidation(w, errs)
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, userID(r), d)
	if err != nil {
		storeError(w, err, "create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, userID(r), id)
	if err != nil {
		storeError(w, err, "get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Replace handles PUT /api/items/{id}. Fields missing from the body are reset.
func (h *ItemsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var patch model.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.save(w, r, id, patch.Replace())
}

// Patch handles PATCH /api/items/{id}. Fields missing from the body are kept.
func (h *ItemsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var patch model.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := store.GetItem(r.Context(), h.DB, userID(r), id)
	if err != nil {
		storeError(w, err, "update item")
		return
	}

	h.save(w, r, id, patch.Apply(current.Draft()))
}

func (h *ItemsHandler) save(w http.ResponseWriter, r *http.Request, id int64, d model.Draft) {
	d.Normalize()
	if errs := d.Validate(); !errs.Empty() {
		jsonValidation(w, errs)
		return
	}

	item, err := store.ReplaceItem(r.Context(), h.DB, userID(r), id, d)
	if err != nil {
		storeError(w, err, "update item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// UpdateStatus handles PATCH /api/items/{id}/status.
func (h *ItemsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidStatus(req.Status) {
		jsonValidation(w, model.FieldErrors{"status": {"invalid status"}})
		return
	}

	item, err := store.SetItemStatus(r.Context(), h.DB, userID(r), id, req.Status)
	if err != nil {
		storeError(w, err, "update item status")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, userID(r), id); err != nil {
		storeError(w, err, "delete item")
		return
	}

	jsonMessage(w, http.StatusOK, "item deleted")
}

// BulkCreate handles POST /api/items/bulk.
func (h *ItemsHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case len(req.Items) == 0:
		jsonValidation(w, model.FieldErrors{"items": {"at least one item is required"}})
		return
	case len(req.Items) > MaxBulkCreate:
		jsonValidation(w, model.FieldErrors{"items": {fmt.Sprintf("at most %d items per request", MaxBulkCreate)}})
		return
	}

	errs := model.FieldErrors{}
	for i := range req.Items {
		req.Items[i].Normalize()
		for field, msgs := range req.Items[i].Validate() {
			key := fmt.Sprintf("items[%d].%s", i, field)
			for _, msg := range msgs {
				errs.Add(key, msg)
			}
		}
	}
	if !errs.Empty() {
		jsonValidation(w, errs)
		return
	}

	items, err := store.CreateItems(r.Context(), h.DB, userID(r), req.Items)
	if err != nil {
		storeError(w, err, "create items")
		return
	}
	jsonResponse(w, http.StatusCreated, items)
}

// BulkDelete handles POST /api/items/bulk-delete.
func (h *ItemsHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case len(req.IDs) == 0:
		jsonValidation(w, model.FieldErrors{"ids": {"at least one id is required"}})
		return
	case len(req.IDs) > MaxBulkDelete:
		jsonValidation(w, model.FieldErrors{"ids": {fmt.Sprintf("at most %d ids per request", MaxBulkDelete)}})
		return
	}

	n, err := store.DeleteItems(r.Context(), h.DB, userID(r), req.IDs)
	if err != nil {
		storeError(w, err, "delete items")
		return
	}
	jsonResponse(w, http.StatusOK, model.DeleteResult{DeletedCount: n})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxBytes+(1<<16))
	if err := r.ParseMultipartForm(imaging.MaxBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Normalize(file)
	if errors.Is(err, imaging.ErrUnsupported) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	item, err := store.SetItemImage(r.Context(), h.DB, userID(r), id, photo.Data, photo.MIME)
	if err != nil {
		storeError(w, err, "save image")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, userID(r), id)
	if err != nil {
		storeError(w, err, "get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}

// filterValue treats the "all" sentinel like an absent filter.
func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "all" {
		return ""
	}
	return v
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}

func userID(r *http.Request) int64 {
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.UserID
	}
	return 0
}

// storeError maps store sentinels to HTTP statuses.
func storeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, store.ErrNotOwner):
		jsonError(w, http.StatusForbidden, "you do not have access to this item")
	default:
		slog.Error("failed to "+action, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}
