package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erazemk/zaloga/internal/api"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/localstore"
	"github.com/erazemk/zaloga/internal/model"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingNavigator struct {
	routes []string
}

func (n *recordingNavigator) Navigate(route string) { n.routes = append(n.routes, route) }

// stubServer answers every request with the given status and body.
func stubServer(t *testing.T, status int, body string, inspect func(*http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestUnauthorizedClearsAuthAndNavigates(t *testing.T) {
	server := stubServer(t, http.StatusUnauthorized, `{"success":false,"message":"invalid or expired token"}`, nil)

	storage := localstore.NewMemory()
	nav := &recordingNavigator{}
	c := New(server.URL, storage, WithNavigator(nav), WithLogger(quiet))
	c.SetToken("stale")
	c.SetCachedUser(&model.User{ID: 1, Username: "ana"})

	_, err := c.GetItems(context.Background(), ItemFilters{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if c.Token() != "" {
		t.Error("expected token to be cleared")
	}
	if c.CachedUser() != nil {
		t.Error("expected cached user to be cleared")
	}
	if len(nav.routes) != 1 || nav.routes[0] != LoginRoute {
		t.Errorf("expected navigation to %s, got %v", LoginRoute, nav.routes)
	}
}

func TestResponseClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{"forbidden", http.StatusForbidden, `{"success":false,"message":"nope"}`, ErrForbidden, MsgForbidden},
		{"server error", http.StatusInternalServerError, `{"success":false,"message":"db down"}`, ErrServer, MsgServer},
		{"bad gateway without body", http.StatusBadGateway, ``, ErrServer, MsgServer},
		{"not found", http.StatusNotFound, `{"success":false,"message":"item not found"}`, ErrRequestFailed, "item not found"},
		{"success false on 200", http.StatusOK, `{"success":false}`, ErrRequestFailed, MsgRequestFailed},
		{"non-json 400", http.StatusBadRequest, `oops`, ErrRequestFailed, MsgRequestFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := stubServer(t, tt.status, tt.body, nil)
			c := New(server.URL, localstore.NewMemory(), WithLogger(quiet))
			c.SetToken("kept")

			_, err := c.GetItem(context.Background(), 1)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if got := Message(err); got != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, got)
			}
			if c.Token() != "kept" {
				t.Error("token must only be cleared on 401")
			}
		})
	}
}

func TestValidationErrorsCarried(t *testing.T) {
	server := stubServer(t, http.StatusBadRequest,
		`{"success":false,"message":"validation failed","errors":{"name":["name is required"]}}`, nil)
	c := New(server.URL, localstore.NewMemory(), WithLogger(quiet))

	_, err := c.CreateItem(context.Background(), model.Draft{})
	if got := FieldErrors(err)["name"]; len(got) != 1 || got[0] != "name is required" {
		t.Errorf("expected name error, got %v", FieldErrors(err))
	}
}

func TestRequestHeaders(t *testing.T) {
	var auth, contentType string
	server := stubServer(t, http.StatusOK, `{"success":true,"data":[]}`, func(r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
	})
	c := New(server.URL, localstore.NewMemory(), WithLogger(quiet))

	c.GetItems(context.Background(), ItemFilters{})
	if auth != "" {
		t.Errorf("expected no Authorization header without a token, got %q", auth)
	}
	if contentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", contentType)
	}

	c.SetToken("abc")
	c.GetItems(context.Background(), ItemFilters{})
	if auth != "Bearer abc" {
		t.Errorf("expected bearer header, got %q", auth)
	}
}

func TestItemFiltersQuery(t *testing.T) {
	var query string
	server := stubServer(t, http.StatusOK, `{"success":true,"data":[]}`, func(r *http.Request) {
		query = r.URL.RawQuery
	})
	c := New(server.URL, localstore.NewMemory(), WithLogger(quiet))

	c.GetItems(context.Background(), ItemFilters{Status: "low", Category: FilterAll, Frequency: "", Search: "milk"})
	if strings.Contains(query, "category") || strings.Contains(query, "frequency") {
		t.Errorf("sentinel filters must be omitted, got %q", query)
	}
	if !strings.Contains(query, "status=low") || !strings.Contains(query, "search=milk") {
		t.Errorf("expected status and search, got %q", query)
	}
}

func TestMalformedItemListIsEmpty(t *testing.T) {
	server := stubServer(t, http.StatusOK, `{"success":true,"data":{"items":"nope"}}`, nil)
	c := New(server.URL, localstore.NewMemory(), WithLogger(quiet))

	items, err := c.GetItems(context.Background(), ItemFilters{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty list, got %v", items)
	}
}

func TestItemWithoutDataFails(t *testing.T) {
	for _, body := range []string{`{"success":true,"data":null}`, `{"success":true}`} {
		server := stubServer(t, http.StatusCreated, body, nil)
		c := New(server.URL, localstore.NewMemory(), WithLogger(quiet))

		item, err := c.CreateItem(context.Background(), model.Draft{Name: "Bread"})
		if !errors.Is(err, ErrRequestFailed) {
			t.Errorf("%s: expected ErrRequestFailed, got %v", body, err)
		}
		if item != nil {
			t.Errorf("%s: expected no item, got %+v", body, item)
		}
		if got := Message(err); got != MsgRequestFailed {
			t.Errorf("%s: expected message %q, got %q", body, MsgRequestFailed, got)
		}
	}
}

func TestLogoutClearsAuthOnFailure(t *testing.T) {
	server := stubServer(t, http.StatusInternalServerError, ``, nil)
	c := New(server.URL, localstore.NewMemory(), WithLogger(quiet))
	c.SetToken("abc")
	c.SetCachedUser(&model.User{ID: 1})

	if err := c.Logout(context.Background()); !errors.Is(err, ErrServer) {
		t.Errorf("expected ErrServer, got %v", err)
	}
	if c.Token() != "" || c.CachedUser() != nil {
		t.Error("expected local auth cleared after failed logout")
	}
}

func TestAgainstRouter(t *testing.T) {
	router := api.NewRouter(db.NewTestDB(t), api.Options{JWTSecret: "test-secret"})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	storage := localstore.NewMemory()
	c := New(server.URL+"/api", storage, WithLogger(quiet))

	result, err := c.Register(ctx, "ana@example.com", "ana", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if c.Token() != result.Token {
		t.Error("expected token to be stored after register")
	}
	if u := c.CachedUser(); u == nil || u.Username != "ana" {
		t.Errorf("expected cached user ana, got %+v", u)
	}

	user, err := c.VerifyToken(ctx)
	if err != nil || user.Email != "ana@example.com" {
		t.Fatalf("VerifyToken: %v %+v", err, user)
	}

	price := 1.5
	milk, err := c.CreateItem(ctx, model.Draft{Name: "Milk", Category: model.CategoryGroceries, Price: &price})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	low := model.StatusLow
	patched, err := c.PatchItem(ctx, milk.ID, model.ItemPatch{Status: &low})
	if err != nil || patched.Status != model.StatusLow || patched.Price == nil {
		t.Fatalf("PatchItem: %v %+v", err, patched)
	}

	name := "Oat milk"
	replaced, err := c.UpdateItem(ctx, milk.ID, model.ItemPatch{Name: &name})
	if err != nil || replaced.Price != nil || replaced.Status != model.StatusInStock {
		t.Fatalf("UpdateItem: %v %+v", err, replaced)
	}

	status, err := c.UpdateItemStatus(ctx, milk.ID, model.StatusOutOfStock)
	if err != nil || status.Status != model.StatusOutOfStock {
		t.Fatalf("UpdateItemStatus: %v %+v", err, status)
	}

	bulk, err := c.BulkCreateItems(ctx, []model.Draft{{Name: "Bread"}, {Name: "Soap"}})
	if err != nil || len(bulk) != 2 {
		t.Fatalf("BulkCreateItems: %v %d", err, len(bulk))
	}

	found, err := c.SearchItems(ctx, "oat")
	if err != nil || len(found) != 1 {
		t.Fatalf("SearchItems: %v %d", err, len(found))
	}

	items, err := c.GetItems(ctx, ItemFilters{Status: FilterAll})
	if err != nil || len(items) != 3 {
		t.Fatalf("GetItems: %v %d", err, len(items))
	}

	deleted, err := c.BulkDeleteItems(ctx, []int64{bulk[0].ID, bulk[1].ID})
	if err != nil || deleted.DeletedCount != 2 {
		t.Fatalf("BulkDeleteItems: %v %+v", err, deleted)
	}

	if _, err := c.DeleteItem(ctx, milk.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	summary, err := c.Summary(ctx)
	if err != nil || summary.TotalItems != 0 {
		t.Fatalf("Summary: %v %+v", err, summary)
	}
	if spending, err := c.MonthlySpending(ctx, 0); err != nil || len(spending) != 12 {
		t.Fatalf("MonthlySpending: %v %d", err, len(spending))
	}
	if cats, err := c.CategoryBreakdown(ctx); err != nil || len(cats) != len(model.Categories) {
		t.Fatalf("CategoryBreakdown: %v %d", err, len(cats))
	}
	if freq, err := c.FrequencyReport(ctx); err != nil || len(freq) != len(model.Frequencies) {
		t.Fatalf("FrequencyReport: %v %d", err, len(freq))
	}

	token := c.Token()
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if c.Token() != "" {
		t.Error("expected token cleared after logout")
	}

	// The revoked token is rejected and the 401 path clears it again.
	c.SetToken(token)
	if _, err := c.VerifyToken(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected revoked token to be unauthorized, got %v", err)
	}
	if c.Token() != "" {
		t.Error("expected 401 to clear the token")
	}

	if _, err := c.Login(ctx, "ana@example.com", "password123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}
