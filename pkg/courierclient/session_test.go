package courierclient

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_MissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "session.json"))

	sess, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.Token != "" || sess.User != nil {
		t.Fatalf("expected empty session, got %+v", sess)
	}
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)

	in := Session{Token: "tok", User: &User{ID: "u1", Role: RoleUser}, LastRoute: "/dashboard"}
	if err := s.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Token != "tok" || out.User == nil || out.User.ID != "u1" || out.LastRoute != "/dashboard" {
		t.Fatalf("unexpected session %+v", out)
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(); err == nil {
		t.Fatal("expected decode error")
	}
}
