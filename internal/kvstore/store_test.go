package kvstore

import (
	"testing"
)

func TestKeys(t *testing.T) {
	t.Parallel()
	if got := DraftKey("f1"); got != "webform_draft_f1" {
		t.Errorf("DraftKey = %q", got)
	}
	if got := SubmittedKey("f1"); got != "webform_submitted_f1" {
		t.Errorf("SubmittedKey = %q", got)
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()

	if _, ok := s.Get("missing"); ok {
		t.Error("Get on empty store reported a hit")
	}
	if err := s.Set("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Get("k"); !ok || v != "v1" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	if err := s.Set("k", "v2"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get("k"); v != "v2" {
		t.Errorf("overwrite lost: %q", v)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get("k"); ok {
		t.Error("deleted key still present")
	}
	if err := s.Delete("k"); err != nil {
		t.Errorf("deleting a missing key should be a no-op: %v", err)
	}
}

func TestMemory(t *testing.T) {
	t.Parallel()
	testStore(t, NewMemory())
}

func TestFile(t *testing.T) {
	t.Parallel()
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
}

func TestFilePersistsAcrossInstances(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	first, err := NewFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set(DraftKey("f1"), `{"name":"Ada"}`); err != nil {
		t.Fatal(err)
	}

	second, err := NewFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := second.Get(DraftKey("f1")); !ok || v != `{"name":"Ada"}` {
		t.Errorf("Get = %q, %v", v, ok)
	}
}

func TestFileSanitizesKeys(t *testing.T) {
	t.Parallel()
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := "../../etc/passwd"
	if err := s.Set(key, "x"); err != nil {
		t.Fatal(err)
	}
	if v, ok := s.Get(key); !ok || v != "x" {
		t.Errorf("sanitized key not readable: %q, %v", v, ok)
	}
}
