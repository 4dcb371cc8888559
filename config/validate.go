package config

import (
	"fmt"

	"github.com/marmos91/vnvheap/internal/rom"
)

// Validate checks a Config for values the demo cannot act on.
func Validate(cfg *Config) error {
	switch cfg.Logging.Level {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("logging.level: invalid value %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: invalid value %q", cfg.Logging.Format)
	}

	if cfg.MaxDirtyBytes == 0 {
		return fmt.Errorf("max_dirty_bytes: must be greater than zero")
	}
	if cfg.RAMBufferSize == 0 {
		return fmt.Errorf("ram_buffer_size: must be greater than zero")
	}
	if uint64(cfg.PartialDirtinessBlockSize) != rom.DirtyTrackBlockSize {
		return fmt.Errorf("partial_dirtiness_block_size: %d does not match the library's fixed tracking granularity of %d",
			cfg.PartialDirtinessBlockSize, rom.DirtyTrackBlockSize)
	}

	switch cfg.Storage.Backend {
	case "memory":
	case "file", "mmap":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path: required for backend %q", cfg.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage.backend: invalid value %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Size == 0 {
		return fmt.Errorf("storage.size: must be greater than zero")
	}

	return nil
}
