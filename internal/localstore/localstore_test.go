package localstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := f.Get("token"); ok {
		t.Fatal("expected empty store")
	}

	if err := f.Set("token", "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := f.Set("user", `{"id":1}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, _ := reopened.Get("user"); v != `{"id":1}` {
		t.Errorf("expected user to persist, got %q", v)
	}

	if err := reopened.Delete("token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := reopened.Delete("missing"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}

	again, _ := Open(path)
	if _, ok := again.Get("token"); ok {
		t.Error("expected token to be deleted")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}
}

func TestOpenCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	os.WriteFile(path, []byte("{not json"), 0o600)

	if _, err := Open(path); err == nil {
		t.Error("expected error for corrupt state file")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	m.Set("k", "v")
	if v, ok := m.Get("k"); !ok || v != "v" {
		t.Errorf("expected v, got %q %v", v, ok)
	}
	m.Delete("k")
	if _, ok := m.Get("k"); ok {
		t.Error("expected key to be gone")
	}
}
