package version

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain", input: "notes.txt"},
		{name: "spaces and unicode", input: "my résumé.md"},
		{name: "empty", input: "", wantErr: true},
		{name: "dot", input: ".", wantErr: true},
		{name: "dot dot", input: "..", wantErr: true},
		{name: "separator", input: "a/b", wantErr: true},
		{name: "nul", input: "a\x00b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestStorePath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "notes.txt")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	want := filepath.Join(dir, "12.notes.txt")
	if got := store.Path(12); got != want {
		t.Errorf("Path(12) = %q, want %q", got, want)
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")
	if _, err := NewStore(dir, "target"); err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Store directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("Store path is not a directory")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected empty store directory, found %d entries", len(entries))
	}
}

func TestStoreCopyAndCreate(t *testing.T) {
	store, err := NewStore(t.TempDir(), "target")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := os.WriteFile(store.Path(1), []byte("hello"), 0644); err != nil {
		t.Fatalf("Failed to seed snapshot: %v", err)
	}

	if err := store.CopyVersion(1, 2); err != nil {
		t.Fatalf("CopyVersion failed: %v", err)
	}
	data, err := os.ReadFile(store.Path(2))
	if err != nil {
		t.Fatalf("Failed to read copy: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Copied snapshot = %q, want %q", data, "hello")
	}

	if err := store.CreateEmpty(2); err != nil {
		t.Fatalf("CreateEmpty failed: %v", err)
	}
	if size, _ := store.Size(2); size != 0 {
		t.Errorf("Expected truncated snapshot, size %d", size)
	}

	if err := store.Remove(2); err != nil {
		t.Errorf("Remove failed: %v", err)
	}
	if err := store.Remove(2); err != nil {
		t.Errorf("Remove of missing snapshot should succeed, got %v", err)
	}
}

func TestStoreLatest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "target")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	latest, err := store.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest != 0 {
		t.Errorf("Latest on empty store = %d, want 0", latest)
	}

	files := []string{
		"1.target",
		"2.target",
		"10.target",
		"11.other",     // different target
		"x.target",     // not a version
		"0.target",     // version 0 never has a snapshot
		"3.target.bak", // wrong suffix
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", f, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "20.target"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	latest, err = store.Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest != 10 {
		t.Errorf("Latest = %d, want 10", latest)
	}
}
