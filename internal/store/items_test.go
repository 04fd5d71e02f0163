package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func newUser(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	user, err := CreateUser(context.Background(), database, name, name+"@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user.ID
}

func draft(name, status string) model.Draft {
	d := model.Draft{Name: name, Status: status}
	d.Normalize()
	return d
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newUser(t, database, "ana")

	price := 1.25
	needBy := "2026-11-01"
	d := model.Draft{Name: "Milk", Category: model.CategoryGroceries, Status: model.StatusLow,
		Frequency: model.FrequencyDaily, Price: &price, Note: "oat", NeedBy: &needBy}

	item, err := CreateItem(ctx, database, userID, d)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ID == 0 || item.CreatedAt.IsZero() {
		t.Errorf("expected server-assigned fields, got %+v", item)
	}
	if item.Price == nil || *item.Price != 1.25 {
		t.Errorf("expected price 1.25, got %v", item.Price)
	}
	if item.NeedBy == nil || *item.NeedBy != needBy {
		t.Errorf("expected needBy %s, got %v", needBy, item.NeedBy)
	}
	if item.Note != "oat" || item.HasImage {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestGetItemOwnership(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := newUser(t, database, "ana")
	bor := newUser(t, database, "bor")

	item, _ := CreateItem(ctx, database, ana, draft("Soap", ""))

	if _, err := GetItem(ctx, database, bor, item.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
	if _, err := GetItem(ctx, database, ana, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := DeleteItem(ctx, database, bor, item.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("expected ErrNotOwner on foreign delete, got %v", err)
	}
}

func TestListItemsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newUser(t, database, "ana")
	other := newUser(t, database, "bor")

	CreateItem(ctx, database, userID, draft("Milk", model.StatusLow))
	CreateItem(ctx, database, userID, draft("Bread", model.StatusInStock))
	CreateItem(ctx, database, userID, draft("100% juice", model.StatusOutOfStock))
	CreateItem(ctx, database, other, draft("Milk", model.StatusLow))

	all, err := ListItems(ctx, database, userID, ItemFilter{})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	if all[0].Name != "100% juice" {
		t.Errorf("expected newest first, got %q", all[0].Name)
	}

	low, _ := ListItems(ctx, database, userID, ItemFilter{Status: model.StatusLow})
	if len(low) != 1 || low[0].Name != "Milk" {
		t.Errorf("expected only Milk, got %+v", low)
	}

	search, _ := ListItems(ctx, database, userID, ItemFilter{Search: "MILK"})
	if len(search) != 1 {
		t.Errorf("expected case-insensitive match, got %d", len(search))
	}

	percent, _ := ListItems(ctx, database, userID, ItemFilter{Search: "%"})
	if len(percent) != 1 || percent[0].Name != "100% juice" {
		t.Errorf("expected literal %% match, got %+v", percent)
	}
}

func TestReplaceAndSetStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newUser(t, database, "ana")

	price := 3.0
	d := draft("Soap", "")
	d.Price = &price
	item, _ := CreateItem(ctx, database, userID, d)

	replaced, err := ReplaceItem(ctx, database, userID, item.ID, draft("Hand soap", model.StatusLow))
	if err != nil {
		t.Fatalf("ReplaceItem: %v", err)
	}
	if replaced.Name != "Hand soap" || replaced.Status != model.StatusLow {
		t.Errorf("unexpected replaced item: %+v", replaced)
	}
	if replaced.Price != nil {
		t.Error("expected full replace to clear price")
	}

	updated, err := SetItemStatus(ctx, database, userID, item.ID, model.StatusOutOfStock)
	if err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}
	if updated.Status != model.StatusOutOfStock || updated.Name != "Hand soap" {
		t.Errorf("unexpected status update: %+v", updated)
	}
}

func TestCreateItemsAllOrNothing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newUser(t, database, "ana")

	items, err := CreateItems(ctx, database, userID, []model.Draft{draft("A", ""), draft("B", "")})
	if err != nil {
		t.Fatalf("CreateItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	bad := draft("C", "")
	bad.Status = "broken"
	if _, err := CreateItems(ctx, database, userID, []model.Draft{draft("D", ""), bad}); err == nil {
		t.Fatal("expected CHECK constraint failure")
	}

	all, _ := ListItems(ctx, database, userID, ItemFilter{})
	if len(all) != 2 {
		t.Errorf("expected rollback to keep 2 items, got %d", len(all))
	}
}

func TestDeleteItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := newUser(t, database, "ana")
	bor := newUser(t, database, "bor")

	a, _ := CreateItem(ctx, database, ana, draft("A", ""))
	b, _ := CreateItem(ctx, database, ana, draft("B", ""))
	foreign, _ := CreateItem(ctx, database, bor, draft("C", ""))

	n, err := DeleteItems(ctx, database, ana, []int64{a.ID, b.ID, foreign.ID, 999})
	if err != nil {
		t.Fatalf("DeleteItems: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	if _, err := GetItem(ctx, database, bor, foreign.ID); err != nil {
		t.Errorf("expected foreign item to survive, got %v", err)
	}
}

func TestItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newUser(t, database, "ana")

	item, _ := CreateItem(ctx, database, userID, draft("Photo Item", ""))
	updated, err := SetItemImage(ctx, database, userID, item.ID, []byte("fake image data"), "image/jpeg")
	if err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}
	if !updated.HasImage {
		t.Error("expected hasImage after upload")
	}

	data, mime, err := GetItemImage(ctx, database, userID, item.ID)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if string(data) != "fake image data" || mime != "image/jpeg" {
		t.Errorf("unexpected image %q (%s)", data, mime)
	}
}
