// Package storagetest is a conformance suite shared by every storage.Driver
// implementation: one behavioural contract, exercised identically against
// Memory, File, and Mmap so a bug in one backend's range-checking or
// round-trip behaviour can't hide behind "well it works for the one driver
// I tested".
package storagetest

import (
	"bytes"
	"testing"

	"github.com/marmos91/vnvheap/storage"
)

// DriverFactory creates a fresh Driver of the given capacity for each test.
type DriverFactory func(t *testing.T, size uint64) storage.Driver

// RunConformanceSuite runs the full conformance suite against factory.
func RunConformanceSuite(t *testing.T, factory DriverFactory) {
	t.Helper()

	t.Run("ReadWriteRoundTrip", func(t *testing.T) { testReadWriteRoundTrip(t, factory) })
	t.Run("OutOfRange", func(t *testing.T) { testOutOfRange(t, factory) })
	t.Run("MaxSize", func(t *testing.T) { testMaxSize(t, factory) })
	t.Run("OverlappingWrites", func(t *testing.T) { testOverlappingWrites(t, factory) })
	t.Run("ZeroLength", func(t *testing.T) { testZeroLength(t, factory) })
}

func testReadWriteRoundTrip(t *testing.T, factory DriverFactory) {
	t.Helper()
	d := factory(t, 4096)

	want := bytes.Repeat([]byte{0xAB}, 128)
	if err := d.Write(256, want); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	got := make([]byte, 128)
	if err := d.Read(256, got); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Read() = %x, want %x", got, want)
	}
}

func testOutOfRange(t *testing.T, factory DriverFactory) {
	t.Helper()
	d := factory(t, 1024)

	buf := make([]byte, 16)
	if err := d.Read(1020, buf); err == nil {
		t.Fatal("Read() past MaxSize() should fail")
	}
	if err := d.Write(1020, buf); err == nil {
		t.Fatal("Write() past MaxSize() should fail")
	}
	if err := d.Read(2000, buf); err == nil {
		t.Fatal("Read() with offset beyond MaxSize() should fail")
	}
}

func testMaxSize(t *testing.T, factory DriverFactory) {
	t.Helper()
	d := factory(t, 8192)
	if got := d.MaxSize(); got != 8192 {
		t.Fatalf("MaxSize() = %d, want 8192", got)
	}
}

func testOverlappingWrites(t *testing.T, factory DriverFactory) {
	t.Helper()
	d := factory(t, 256)

	if err := d.Write(0, bytes.Repeat([]byte{0x11}, 128)); err != nil {
		t.Fatalf("first Write() failed: %v", err)
	}
	if err := d.Write(64, bytes.Repeat([]byte{0x22}, 128)); err != nil {
		t.Fatalf("second Write() failed: %v", err)
	}

	got := make([]byte, 256)
	if err := d.Read(0, got); err != nil {
		t.Fatalf("Read() failed: %v", err)
	}

	want := append(bytes.Repeat([]byte{0x11}, 64), bytes.Repeat([]byte{0x22}, 128)...)
	want = append(want, make([]byte, 64)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("Read() = %x, want %x", got, want)
	}
}

func testZeroLength(t *testing.T, factory DriverFactory) {
	t.Helper()
	d := factory(t, 64)

	if err := d.Write(0, nil); err != nil {
		t.Fatalf("zero-length Write() failed: %v", err)
	}
	if err := d.Read(0, nil); err != nil {
		t.Fatalf("zero-length Read() failed: %v", err)
	}
}
