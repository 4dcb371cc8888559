package storage

import (
	"os"
	"sync"
)

// File is an os.File-backed Driver using ReadAt/WriteAt. Durability relies
// on the OS page cache unless fsync is requested, in which case every
// Write is followed by an explicit f.Sync().
type File struct {
	mu      sync.Mutex
	f       *os.File
	maxSize uint64
	sync    bool
}

// OpenFile opens (creating if necessary) a file-backed NV arena of maxSize
// bytes. If fsync is true, every Write is followed by an explicit f.Sync().
func OpenFile(path string, maxSize uint64, fsync bool) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(maxSize)); err != nil {
		f.Close()
		return nil, err
	}
	return &File{f: f, maxSize: maxSize, sync: fsync}, nil
}

func (d *File) Read(offset uint64, dest []byte) error {
	if err := checkRange(offset, len(dest), d.maxSize); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.f.ReadAt(dest, int64(offset))
	if err != nil {
		return err
	}
	if n != len(dest) {
		return ErrOutOfRange
	}
	return nil
}

func (d *File) Write(offset uint64, src []byte) error {
	if err := checkRange(offset, len(src), d.maxSize); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.f.WriteAt(src, int64(offset))
	if err != nil {
		return err
	}
	if n != len(src) {
		return ErrOutOfRange
	}
	if d.sync {
		return d.f.Sync()
	}
	return nil
}

func (d *File) MaxSize() uint64 { return d.maxSize }

func (d *File) ForgetRegion(uint64, uint64) {}

// Close releases the underlying file handle.
func (d *File) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}
