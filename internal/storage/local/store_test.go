package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

type testRecord struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if store.Path() != dir {
		t.Errorf("Path() = %v, want %v", store.Path(), dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory, got file")
	}
}

func TestStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)

	original := testRecord{Name: "backend", Value: 42}
	if err := store.Save("reports", "r1", original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var loaded testRecord
	if err := store.Load("reports", "r1", &loaded); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != original {
		t.Errorf("Load() = %+v, want %+v", loaded, original)
	}
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := store.Save("reports", "r1", testRecord{Value: i}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(store.Path(), "reports"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "r1.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory entries = %v, want [r1.json]", names)
	}

	var loaded testRecord
	if err := store.Load("reports", "r1", &loaded); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Value != 2 {
		t.Errorf("Value = %d, want last write 2", loaded.Value)
	}
}

func TestStore_NotFound(t *testing.T) {
	store := newTestStore(t)

	var loaded testRecord
	if err := store.Load("reports", "missing", &loaded); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
	if err := store.Delete("reports", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestStore_InvalidKeys(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name       string
		collection string
		id         string
	}{
		{"empty id", "reports", ""},
		{"dot dot", "reports", ".."},
		{"slash in id", "reports", "../escape"},
		{"backslash", "reports", `a\b`},
		{"empty collection", "", "r1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Save(tt.collection, tt.id, testRecord{}); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Save() error = %v, want ErrInvalidKey", err)
			}
			var rec testRecord
			if err := store.Load(tt.collection, tt.id, &rec); !errors.Is(err, ErrInvalidKey) {
				t.Errorf("Load() error = %v, want ErrInvalidKey", err)
			}
			if store.Exists(tt.collection, tt.id) {
				t.Error("Exists() = true for invalid key")
			}
		})
	}
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("reports", "r1", testRecord{Name: "x"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete("reports", "r1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists("reports", "r1") {
		t.Error("record still exists after Delete()")
	}
}

func TestStore_ListSorted(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"c", "a", "b"} {
		if err := store.Save("reports", id, testRecord{Name: id}); err != nil {
			t.Fatalf("Save(%s) error = %v", id, err)
		}
	}
	// stray files are ignored
	os.WriteFile(filepath.Join(store.Path(), "reports", "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(store.Path(), "reports", ".r9-123.tmp"), []byte("x"), 0644)
	os.Mkdir(filepath.Join(store.Path(), "reports", "sub.json"), 0755)

	ids, err := store.List("reports")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"a", "b", "c"}
	if fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Errorf("List() = %v, want %v", ids, want)
	}
}

func TestStore_ListEmptyCollection(t *testing.T) {
	store := newTestStore(t)

	ids, err := store.List("nothing")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", ids)
	}
}

func TestStore_Concurrency(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("r%d", n%5)
			if err := store.Save("reports", id, testRecord{Value: n}); err != nil {
				t.Errorf("Save() error = %v", err)
				return
			}
			var rec testRecord
			if err := store.Load("reports", id, &rec); err != nil {
				t.Errorf("Load() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	ids, err := store.List("reports")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 5 {
		t.Errorf("List() returned %d ids, want 5", len(ids))
	}
}
