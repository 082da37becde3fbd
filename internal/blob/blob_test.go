package blob

import (
	"bytes"
	"strings"
	"testing"
)

func TestPutGet_RoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	data := []byte{0xff, 0xd8, 0xff, 0xe0}
	name, err := store.Put("photo.jpg", data)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if !strings.HasPrefix(name, "photo-") || !strings.HasSuffix(name, ".jpg") {
		t.Errorf("blob name = %s, want photo-<suffix>.jpg", name)
	}

	got, err := store.Get(name)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get() = %v, want %v", got, data)
	}
}

func TestPut_SameFilenameNoCollision(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	a, err := store.Put("photo.jpg", []byte("one"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	b, err := store.Put("photo.jpg", []byte("two"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if a == b {
		t.Errorf("repeated uploads produced the same name %s", a)
	}
}

func TestPut_StripsPathComponents(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	name, err := store.Put("../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		t.Errorf("blob name carries path components: %s", name)
	}
}

func TestGet_RejectsTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	for _, name := range []string{"../secret", "a/b", "..", ""} {
		if _, err := store.Get(name); err == nil {
			t.Errorf("Get(%q) expected error, got nil", name)
		}
	}
}
