package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/marmos91/vnvheap/storage"
	"github.com/marmos91/vnvheap/storage/storagetest"
)

func TestFileConformance(t *testing.T) {
	storagetest.RunConformanceSuite(t, func(t *testing.T, size uint64) storage.Driver {
		path := filepath.Join(t.TempDir(), "arena.bin")
		d, err := storage.OpenFile(path, size, false)
		if err != nil {
			t.Fatalf("OpenFile() failed: %v", err)
		}
		t.Cleanup(func() { _ = d.Close() })
		return d
	})
}

func TestFileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.bin")

	d, err := storage.OpenFile(path, 4096, true)
	if err != nil {
		t.Fatalf("OpenFile() failed: %v", err)
	}
	if err := d.Write(128, []byte("persisted")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	reopened, err := storage.OpenFile(path, 4096, true)
	if err != nil {
		t.Fatalf("re-OpenFile() failed: %v", err)
	}
	defer reopened.Close()

	got := make([]byte, len("persisted"))
	if err := reopened.Read(128, got); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if string(got) != "persisted" {
		t.Fatalf("Read() = %q, want %q", got, "persisted")
	}
}
