package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marmos91/vnvheap/internal/bytesize"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "DEBUG"

max_dirty_bytes: 2Mi

storage:
  backend: file
  path: "` + filepath.ToSlash(tmpDir) + `/heap.dat"
  size: 100Mi
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("logging.level = %q, want DEBUG", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("logging.format = %q, want default text", cfg.Logging.Format)
	}
	if cfg.MaxDirtyBytes != 2*bytesize.MiB {
		t.Errorf("max_dirty_bytes = %d, want %d", cfg.MaxDirtyBytes, 2*bytesize.MiB)
	}
	if cfg.RAMBufferSize != 16*bytesize.MiB {
		t.Errorf("ram_buffer_size = %d, want default %d", cfg.RAMBufferSize, 16*bytesize.MiB)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("storage.backend = %q, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.Size != 100*bytesize.MiB {
		t.Errorf("storage.size = %d, want %d", cfg.Storage.Size, 100*bytesize.MiB)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("expected no error loading default config, got: %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("default storage.backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.MaxDirtyBytes == 0 {
		t.Error("default max_dirty_bytes should be non-zero")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Storage.Backend = "mmap"
	cfg.Storage.Path = filepath.Join(tmpDir, "heap.dat")

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("save config: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if loaded.Storage.Backend != "mmap" {
		t.Errorf("round-tripped storage.backend = %q, want mmap", loaded.Storage.Backend)
	}
}
