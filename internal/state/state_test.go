package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_MissingFileUsesDefaults(t *testing.T) {
	store := Open(filepath.Join(t.TempDir(), "state.json"))

	got := store.Get()
	if got.Token != "" || got.UserName != "" {
		t.Fatalf("state = %+v, want empty defaults", got)
	}
	if got.UserRole != "viewer" {
		t.Fatalf("UserRole = %q, want viewer", got.UserRole)
	}
	if got.LoggedIn() {
		t.Fatalf("LoggedIn() = true for defaults")
	}
}

func TestOpen_CorruptFileIsDeletedAndReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := Open(path)
	if got := store.Get(); got != Defaults() {
		t.Fatalf("state = %+v, want defaults", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("corrupt file still exists (stat err = %v)", err)
	}
}

func TestStore_PutRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := Open(path)

	level := 0
	next := State{Token: "tok", AccessLevel: &level, UserName: "Koval", UserRole: "operator"}
	if err := store.Put(next); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	reopened := Open(path)
	got := reopened.Get()
	if got.Token != "tok" || got.UserName != "Koval" || got.UserRole != "operator" {
		t.Fatalf("reloaded state = %+v, want persisted values", got)
	}
	if got.AccessLevel == nil || *got.AccessLevel != 0 {
		t.Fatalf("AccessLevel = %v, want 0", got.AccessLevel)
	}
	if !got.LoggedIn() {
		t.Fatalf("LoggedIn() = false after login persisted")
	}
}

func TestOpen_IgnoresUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	payload := `{"token":"tok","future_field":123,"user_role":"admin"}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := Open(path)
	got := store.Get()
	if got.Token != "tok" || got.UserRole != "admin" {
		t.Fatalf("state = %+v, want known fields loaded", got)
	}
}

func TestStore_UpdateMutatesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := Open(path)

	if err := store.Update(func(s *State) { s.UserName = "Bondar" }); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if got := Open(path).Get(); got.UserName != "Bondar" {
		t.Fatalf("UserName = %q, want Bondar", got.UserName)
	}
}
