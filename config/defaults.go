package config

import "github.com/marmos91/vnvheap/internal/bytesize"

// ApplyDefaults fills unset fields with sensible defaults for a demo run.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.MaxDirtyBytes == 0 {
		cfg.MaxDirtyBytes = 4 * bytesize.MiB
	}
	if cfg.RAMBufferSize == 0 {
		cfg.RAMBufferSize = 16 * bytesize.MiB
	}
	if cfg.PartialDirtinessBlockSize == 0 {
		cfg.PartialDirtinessBlockSize = 64 // matches internal/rom.DirtyTrackBlockSize
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Storage.Size == 0 {
		cfg.Storage.Size = 64 * bytesize.MiB
	}
}

// GetDefaultConfig returns a Config with every field defaulted, suitable
// for "demo init" to write out as a starting point.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
