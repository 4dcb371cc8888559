package storage

import "sync"

// Memory is an in-RAM Driver backed by a plain byte slice. It has no
// durability guarantee of its own — it exists for tests, benchmarks, and
// end-to-end scenarios where the test harness explicitly zeroes the "RAM
// buffer" and reloads from this store to assert durability of the
// separately-modelled NV arena.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

// NewMemory allocates a Memory driver with the given fixed capacity.
func NewMemory(size uint64) *Memory {
	return &Memory{data: make([]byte, size)}
}

func (m *Memory) Read(offset uint64, dest []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(offset, len(dest), uint64(len(m.data))); err != nil {
		return err
	}
	copy(dest, m.data[offset:])
	return nil
}

func (m *Memory) Write(offset uint64, src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(offset, len(src), uint64(len(m.data))); err != nil {
		return err
	}
	copy(m.data[offset:], src)
	return nil
}

func (m *Memory) MaxSize() uint64 { return uint64(len(m.data)) }

func (m *Memory) ForgetRegion(uint64, uint64) {}

// Zero overwrites the entire backing slice with zero bytes. Used by tests
// to simulate a power-failure-and-restart cycle on the storage side while
// leaving the (separately zeroed) RAM buffer unable to serve any resident
// copies.
func (m *Memory) Zero() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
}
