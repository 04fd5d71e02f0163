package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/zaloga/internal/model"
)

// FilterAll is the filter value meaning "no constraint".
const FilterAll = "all"

// ItemFilters narrows GetItems on the server.
type ItemFilters struct {
	Status    string
	Category  string
	Frequency string
	Search    string
}

func (f ItemFilters) query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" && value != FilterAll {
			q.Set(key, value)
		}
	}
	set("status", f.Status)
	set("category", f.Category)
	set("frequency", f.Frequency)
	set("search", f.Search)
	return q
}

func itemPath(id int64) string {
	return "/items/" + strconv.FormatInt(id, 10)
}

// GetItems lists the user's items, newest first. Data that is not a list is
// reported as an empty result.
func (c *Client) GetItems(ctx context.Context, filters ItemFilters) ([]model.Item, error) {
	return c.listItems(ctx, request{
		endpoint: "getItems",
		method:   http.MethodGet,
		path:     "/items",
		query:    filters.query(),
	})
}

// SearchItems lists items whose name or note contains query.
func (c *Client) SearchItems(ctx context.Context, query string) ([]model.Item, error) {
	return c.listItems(ctx, request{
		endpoint: "searchItems",
		method:   http.MethodGet,
		path:     "/items/search",
		query:    url.Values{"q": {query}},
	})
}

func (c *Client) listItems(ctx context.Context, req request) ([]model.Item, error) {
	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var items []model.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		if isShapeError(err) {
			c.log.Warn("ignoring malformed item list", "endpoint", req.endpoint, "error", err)
			return nil, nil
		}
		err = fmt.Errorf("%s: decoding items: %w", req.endpoint, err)
		c.log.Error("api request failed", "endpoint", req.endpoint, "error", err)
		return nil, err
	}
	return items, nil
}

// GetItem returns a single item.
func (c *Client) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	return c.item(ctx, request{endpoint: "getItem", method: http.MethodGet, path: itemPath(id)})
}

// CreateItem stores a new item and returns the server's record.
func (c *Client) CreateItem(ctx context.Context, d model.Draft) (*model.Item, error) {
	return c.item(ctx, request{endpoint: "createItem", method: http.MethodPost, path: "/items", body: d})
}

// UpdateItem replaces an item. Fields missing from p are reset.
func (c *Client) UpdateItem(ctx context.Context, id int64, p model.ItemPatch) (*model.Item, error) {
	return c.item(ctx, request{endpoint: "updateItem", method: http.MethodPut, path: itemPath(id), body: p})
}

// PatchItem changes only the fields set in p.
func (c *Client) PatchItem(ctx context.Context, id int64, p model.ItemPatch) (*model.Item, error) {
	return c.item(ctx, request{endpoint: "patchItem", method: http.MethodPatch, path: itemPath(id), body: p})
}

// UpdateItemStatus changes only an item's stock status.
func (c *Client) UpdateItemStatus(ctx context.Context, id int64, status string) (*model.Item, error) {
	return c.item(ctx, request{
		endpoint: "updateItemStatus",
		method:   http.MethodPatch,
		path:     itemPath(id) + "/status",
		body:     map[string]string{"status": status},
	})
}

// item decodes a single item. A success envelope without data is a failed request.
func (c *Client) item(ctx context.Context, req request) (*model.Item, error) {
	var item *model.Item
	if err := c.do(ctx, req, &item); err != nil {
		return nil, err
	}
	if item == nil {
		err := c.apiError(ErrRequestFailed, req, http.StatusOK, MsgRequestFailed, nil)
		c.log.Error("api request failed", "endpoint", req.endpoint, "error", err)
		return nil, err
	}
	return item, nil
}

// DeleteItem permanently removes an item.
func (c *Client) DeleteItem(ctx context.Context, id int64) (*model.Message, error) {
	var msg model.Message
	err := c.do(ctx, request{endpoint: "deleteItem", method: http.MethodDelete, path: itemPath(id)}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// BulkCreateItems stores all drafts or none of them.
func (c *Client) BulkCreateItems(ctx context.Context, drafts []model.Draft) ([]model.Item, error) {
	return c.listItems(ctx, request{
		endpoint: "bulkCreateItems",
		method:   http.MethodPost,
		path:     "/items/bulk",
		body:     map[string][]model.Draft{"items": drafts},
	})
}

// BulkDeleteItems removes the given items and reports how many were deleted.
func (c *Client) BulkDeleteItems(ctx context.Context, ids []int64) (*model.DeleteResult, error) {
	var result model.DeleteResult
	err := c.do(ctx, request{
		endpoint: "bulkDeleteItems",
		method:   http.MethodPost,
		path:     "/items/bulk-delete",
		body:     map[string][]int64{"ids": ids},
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
