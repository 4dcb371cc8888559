//go:build unix

package storage

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Mmap is a Driver backed by a memory-mapped file, simulating byte-addressable
// NV media (FRAM/MRAM) sitting behind a real file. It uses
// unix.Mmap/unix.Msync directly over a plain fixed-size region: there is no
// header, no entry framing, and no growth, since the vNV arena size is fixed
// for the lifetime of a Heap.
type Mmap struct {
	mu   sync.Mutex
	f    *os.File
	data []byte
}

// OpenMmap opens (creating if necessary) a file of exactly size bytes and
// maps it PROT_READ|PROT_WRITE/MAP_SHARED.
func OpenMmap(path string, size uint64) (*Mmap, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Mmap{f: f, data: data}, nil
}

func (d *Mmap) Read(offset uint64, dest []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkRange(offset, len(dest), uint64(len(d.data))); err != nil {
		return err
	}
	copy(dest, d.data[offset:])
	return nil
}

// Write copies src into the mapped region and calls Msync(MS_SYNC) before
// returning, so the Driver contract's "durable on return" guarantee holds
// even though the region is ordinary mapped memory until synced.
func (d *Mmap) Write(offset uint64, src []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkRange(offset, len(src), uint64(len(d.data))); err != nil {
		return err
	}
	copy(d.data[offset:], src)
	return unix.Msync(d.data, unix.MS_SYNC)
}

func (d *Mmap) MaxSize() uint64 { return uint64(len(d.data)) }

func (d *Mmap) ForgetRegion(uint64, uint64) {}

// Close unmaps the region and closes the underlying file.
func (d *Mmap) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := unix.Munmap(d.data); err != nil {
		return err
	}
	return d.f.Close()
}
