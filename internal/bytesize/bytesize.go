// Package bytesize provides the ByteSize type used by every size-shaped
// field in the demo config file: max_dirty_bytes, ram_buffer_size,
// storage.size, and partial_dirtiness_block_size all decode through it so
// an operator can write "2MiB" instead of counting out zeroes.
package bytesize

import (
	"encoding"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ByteSize is a count of bytes that decodes from either a plain integer
// or a unit-suffixed string ("2MiB", "512KB", "100M").
type ByteSize uint64

var _ encoding.TextUnmarshaler = (*ByteSize)(nil)

const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB
	TB ByteSize = 1000 * GB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
	TiB ByteSize = 1024 * GiB
)

// sizePattern splits a size string into its numeric and unit portions.
var sizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

var unitScale = map[string]ByteSize{
	"": B, "b": B,
	"k": KB, "kb": KB,
	"m": MB, "mb": MB,
	"g": GB, "gb": GB,
	"t": TB, "tb": TB,
	"ki": KiB, "kib": KiB,
	"mi": MiB, "mib": MiB,
	"gi": GiB, "gib": GiB,
	"ti": TiB, "tib": TiB,
}

// ParseByteSize parses a size string like "1Gi", "500Mi", "100MB", or a
// bare number of bytes.
func ParseByteSize(s string) (ByteSize, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("bytesize: empty size string")
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("bytesize: invalid size format: %q", s)
	}

	numStr := matches[1]
	unit := strings.ToLower(matches[2])
	scale, ok := unitScale[unit]
	if !ok {
		return 0, fmt.Errorf("bytesize: unknown unit: %q", matches[2])
	}

	if strings.Contains(numStr, ".") {
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, fmt.Errorf("bytesize: invalid number: %q", numStr)
		}
		return ByteSize(num * float64(scale)), nil
	}

	num, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: invalid number: %q", numStr)
	}
	return ByteSize(num) * scale, nil
}

// UnmarshalText satisfies encoding.TextUnmarshaler so yaml.v3 and
// mapstructure (via byteSizeDecodeHook) both accept a unit-suffixed
// string directly into a ByteSize field.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// String renders the size at the largest binary unit that keeps the
// value >= 1, matching the units ParseByteSize accepts back.
func (b ByteSize) String() string {
	switch {
	case b >= TiB:
		return fmt.Sprintf("%.2fTiB", float64(b)/float64(TiB))
	case b >= GiB:
		return fmt.Sprintf("%.2fGiB", float64(b)/float64(GiB))
	case b >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(b)/float64(MiB))
	case b >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(b)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

func (b ByteSize) Uint64() uint64 { return uint64(b) }

// Int64 may overflow for a ByteSize past math.MaxInt64.
func (b ByteSize) Int64() int64 { return int64(b) }
