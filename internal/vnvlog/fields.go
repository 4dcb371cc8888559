package vnvlog

import "log/slog"

// Standard field keys used consistently across ROM, NRA, OMP, and PAP so
// log aggregation can group heap events regardless of which subsystem
// emitted them.
const (
	KeyOffset       = "offset"        // NV offset of an object or free block
	KeySize         = "size"          // byte size of an object or layout
	KeyDirtyBytes   = "dirty_bytes"   // running dirty budget consumption
	KeyResidentCnt  = "resident_count"
	KeyFreedBytes   = "freed_bytes"
	KeyDurationMs   = "duration_ms"
	KeyErrorCode    = "error_code"
	KeySweepCount   = "sweep_count"
)

func Offset(off uint64) slog.Attr      { return slog.Uint64(KeyOffset, off) }
func Size(size uint64) slog.Attr       { return slog.Uint64(KeySize, size) }
func DirtyBytes(n uint64) slog.Attr    { return slog.Uint64(KeyDirtyBytes, n) }
func ResidentCount(n int) slog.Attr    { return slog.Int(KeyResidentCnt, n) }
func Err(err error) slog.Attr          { return slog.Any("error", err) }
