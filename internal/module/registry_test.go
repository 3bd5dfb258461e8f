package module

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryResolvesFromDisk(t *testing.T) {
	dir := t.TempDir()
	m := New("util.text")
	m.Emit(OpHalt, 0, 0, 0)
	data, err := m.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "util"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "util", "text.mnb"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry(dir)
	got, err := r.Resolve("util.text")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Name != "util.text" {
		t.Errorf("Name = %q", got.Name)
	}

	// First load wins: resolving again returns the cached record.
	again, err := r.Resolve("util.text")
	if err != nil || again != got {
		t.Error("second resolve must hit the cache")
	}
}

func TestRegistryReportsNotFound(t *testing.T) {
	r := NewRegistry(t.TempDir())
	_, err := r.Resolve("no.such.module")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Name != "no.such.module" {
		t.Errorf("Name = %q", nf.Name)
	}
}

func TestRegisterBypassesDisk(t *testing.T) {
	r := NewRegistry(t.TempDir())
	m := New("inline")
	r.Register("inline", m)
	got, err := r.Resolve("inline")
	if err != nil || got != m {
		t.Errorf("registered module must resolve without disk I/O: %v", err)
	}
	if len(r.Loaded()) != 1 {
		t.Errorf("Loaded() = %d modules, want 1", len(r.Loaded()))
	}
}
