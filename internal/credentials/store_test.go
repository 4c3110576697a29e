package credentials

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestStore_OpenLoadsPairsAndSkipsMalformedLines(t *testing.T) {
	path := writeFile(t, "alice,pw1\nnot-a-pair\nbob,pw2\na,b,c\n")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 users, got %d", s.Len())
	}
	if !s.Authenticate("alice", "pw1") || !s.Authenticate("bob", "pw2") {
		t.Fatal("expected loaded users to authenticate")
	}
}

func TestStore_OpenMissingFileYieldsEmptyStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d users", s.Len())
	}
}

func TestStore_AuthenticateIsExactAndCaseSensitive(t *testing.T) {
	s, err := Open(writeFile(t, "alice,pw1\n"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if s.Authenticate("alice", "wrong") {
		t.Fatal("wrong password accepted")
	}
	if s.Authenticate("Alice", "pw1") {
		t.Fatal("usernames should be case-sensitive")
	}
	if s.Authenticate("nobody", "pw1") {
		t.Fatal("unknown user accepted")
	}
}

func TestStore_AddRejectsDuplicatesAndBadNames(t *testing.T) {
	s, err := Open(writeFile(t, "alice,pw1\n"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := s.Add("alice", "other"); err != ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if err := s.Add("", "pw"); err != ErrBadUsername {
		t.Fatalf("expected ErrBadUsername, got %v", err)
	}
	if err := s.Add("a,b", "pw"); err != ErrBadUsername {
		t.Fatalf("expected ErrBadUsername, got %v", err)
	}
	if err := s.Add("bob", "pw2"); err != nil {
		t.Fatalf("add: %v", err)
	}
}

func TestStore_SaveRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.txt")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Add("carol", "pw3"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add("alice", "pw1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "alice,pw1\ncarol,pw3\n" {
		t.Fatalf("unexpected file content: %q", string(data))
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.Authenticate("carol", "pw3") {
		t.Fatal("saved user should authenticate after reload")
	}
}
