package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/vnvheap"
	"github.com/marmos91/vnvheap/config"
	"github.com/marmos91/vnvheap/internal/pap"
	"github.com/marmos91/vnvheap/internal/vnvlog"
	"github.com/marmos91/vnvheap/storage"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive an allocate/get_mut/unload/get/drop lifecycle against the configured storage backend",
	Long: `Load the configuration, open the selected NV storage backend, and run
through a sequence of allocate/get/get_mut/unload/drop operations while
the process responds to external signals:

  SIGINT, SIGTERM   graceful shutdown (flush and close the heap)
  SIGUSR1           trigger internal/pap.PersistAll() immediately`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := vnvlog.Init(vnvlog.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	vnvlog.Info("demo: config loaded",
		slog.String("max_dirty_bytes", cfg.MaxDirtyBytes.String()),
		slog.String("ram_buffer_size", cfg.RAMBufferSize.String()),
		slog.String("storage_size", cfg.Storage.Size.String()))

	drv, closeDrv, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage backend %q: %w", cfg.Storage.Backend, err)
	}
	defer closeDrv()

	heap, err := vnvheap.New(vnvheap.Config{
		MaxDirtyBytes: uint64(cfg.MaxDirtyBytes),
		RAMBuffer:     make([]byte, cfg.RAMBufferSize),
	}, drv)
	if err != nil {
		return fmt.Errorf("construct heap: %w", err)
	}
	defer heap.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	defer signal.Stop(sigChan)

	done := make(chan struct{})
	go func() {
		defer close(done)
		runScenarios(heap)
	}()

	for {
		select {
		case <-done:
			vnvlog.Info("demo: scenarios complete, shutting down")
			return nil
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGUSR1:
				acquired, err := pap.PersistAll()
				if err != nil {
					vnvlog.Error("demo: persist_all failed", vnvlog.Err(err))
				} else if !acquired {
					vnvlog.Warn("demo: persist_all skipped, heap busy")
				} else {
					vnvlog.Info("demo: persist_all completed on signal")
				}
			default:
				vnvlog.Info("demo: shutdown signal received")
				return nil
			}
		}
	}
}

// openStorage constructs the storage.Driver named by cfg.Backend and
// returns a cleanup func that closes it if it owns an OS resource.
func openStorage(cfg config.StorageConfig) (storage.Driver, func(), error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemory(uint64(cfg.Size)), func() {}, nil
	case "file":
		drv, err := storage.OpenFile(cfg.Path, uint64(cfg.Size), cfg.Fsync)
		if err != nil {
			return nil, nil, err
		}
		return drv, func() { drv.Close() }, nil
	case "mmap":
		drv, err := storage.OpenMmap(cfg.Path, uint64(cfg.Size))
		if err != nil {
			return nil, nil, err
		}
		return drv, func() { drv.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// counter is the demo payload type: a fixed-size POD satisfying Allocate's
// binary.Size requirement.
type counter struct {
	Value uint64
	Tag   [24]byte
}

// runScenarios walks a minimal allocate/get/get_mut/unload/drop lifecycle,
// narrating each step at Info level. It is not a correctness test (see
// scenarios_test.go for that) — it exists to give a reader something to
// watch happen.
func runScenarios(h *vnvheap.Heap) {
	id, err := vnvheap.Allocate(h, counter{Value: 1})
	if err != nil {
		vnvlog.Error("demo: allocate failed", vnvlog.Err(err))
		return
	}
	vnvlog.Info("demo: allocated a counter", vnvlog.Offset(id.Offset()))

	for i := 0; i < 5; i++ {
		g, err := vnvheap.GetMut(h, id)
		if err != nil {
			vnvlog.Error("demo: get_mut failed", vnvlog.Err(err))
			return
		}
		g.Value().Value++
		g.Release()
	}
	vnvlog.Info("demo: incremented five times")

	if err := vnvheap.Unload(h, id); err != nil {
		vnvlog.Error("demo: unload failed", vnvlog.Err(err))
		return
	}
	vnvlog.Info("demo: evicted, will reload from NV on next access")

	g, err := vnvheap.Get(h, id)
	if err != nil {
		vnvlog.Error("demo: get failed", vnvlog.Err(err))
		return
	}
	vnvlog.Info("demo: reloaded counter", slog.Uint64("value", g.Value().Value))
	g.Release()

	if err := vnvheap.Drop(h, id); err != nil {
		vnvlog.Error("demo: drop failed", vnvlog.Err(err))
		return
	}
	vnvlog.Info("demo: dropped counter, slot returned to the allocator")
}
