package vnvheap

import (
	"bytes"
	"encoding/binary"
	"reflect"

	"github.com/marmos91/vnvheap/internal/rom"
)

// buildCodec turns T's fixed, plain-old-data layout into a rom.Codec via
// encoding/binary's reflection-based Read/Write: no unsafe, just a
// fixed-layout marshal built on binary.Write/Read framing. T must have a
// fixed binary size (no strings, slices, maps, or interfaces) — the Go
// analogue of a Copy-bound type, since a type with heap indirection has
// no single well-defined NV byte representation.
func buildCodec[T any](partial bool) (rom.Codec, error) {
	var zero T
	size := binary.Size(zero)
	if size < 0 {
		return rom.Codec{}, NewStorageIOError("type is not a fixed-size, plain-old-data layout usable as vNV-heap payload")
	}
	align := reflect.TypeOf(zero).Align()

	return rom.Codec{
		Size:    uint64(size),
		Align:   uint64(align),
		Partial: partial,
		Encode: func(dst []byte, value any) {
			buf := bytes.NewBuffer(make([]byte, 0, len(dst)))
			// T is a fixed-size layout per the Size check above, so this
			// never fails.
			_ = binary.Write(buf, binary.NativeEndian, value)
			copy(dst, buf.Bytes())
		},
		Decode: func(src []byte) any {
			v := new(T)
			_ = binary.Read(bytes.NewReader(src), binary.NativeEndian, v)
			return v
		},
	}, nil
}

// Allocate reserves a backup slot, persists initial's encoding, and brings
// the object resident if RAM and dirty budget allow; otherwise the object
// is left non-resident and is loaded from NV on first use.
func Allocate[T any](h *Heap, initial T) (Identifier[T], error) {
	codec, err := buildCodec[T](false)
	if err != nil {
		return Identifier[T]{}, err
	}
	offset, err := h.rom.Allocate(codec, &initial)
	if err != nil {
		return Identifier[T]{}, translateErr(err)
	}
	return Identifier[T]{offset: offset, heap: h}, nil
}

// AllocatePartial is Allocate with partial-dirtiness tracking enabled:
// syncs only write back the dirty blocks an ExclusiveGuard marked via
// MarkDirtyRange, instead of the whole object, worthwhile for large
// objects with small, localized writes. An exclusive acquisition that
// marks no range syncs the whole object.
func AllocatePartial[T any](h *Heap, initial T) (Identifier[T], error) {
	codec, err := buildCodec[T](true)
	if err != nil {
		return Identifier[T]{}, err
	}
	offset, err := h.rom.Allocate(codec, &initial)
	if err != nil {
		return Identifier[T]{}, translateErr(err)
	}
	return Identifier[T]{offset: offset, heap: h}, nil
}

// Drop destroys the object identified by id and returns its backup slot
// to the non-resident allocator. Calling Drop while a guard on id is
// still open is an InvariantViolated condition: Go's type system cannot
// statically rule this out the way a borrow checker would, so this
// implementation panics rather than silently corrupting the residency
// state.
func Drop[T any](h *Heap, id Identifier[T]) error {
	codec, err := buildCodec[T](false)
	if err != nil {
		return err
	}
	var destructed *T
	err = h.rom.Drop(id.offset, codec, func(value any) {
		destructed = value.(*T)
		if f, ok := any(destructed).(Finalizer); ok {
			f.Finalize()
		}
	})
	return translateErr(err)
}

// Finalizer is implemented by a T with a non-trivial destructor. Drop
// type-asserts the loaded value against it before releasing the slot —
// the closest Go gets to "invoke T's destructor if any" in a language
// without destructors.
type Finalizer interface {
	Finalize()
}

// Get acquires a SharedGuard on id, loading it from NV first if it is not
// currently resident.
func Get[T any](h *Heap, id Identifier[T]) (SharedGuard[T], error) {
	codec, err := buildCodec[T](false)
	if err != nil {
		return SharedGuard[T]{}, err
	}
	value, err := h.rom.AcquireShared(id.offset, codec)
	if err != nil {
		return SharedGuard[T]{}, translateErr(err)
	}
	return SharedGuard[T]{heap: h, id: id, value: value.(*T)}, nil
}

// GetMut acquires an ExclusiveGuard on id.
func GetMut[T any](h *Heap, id Identifier[T]) (ExclusiveGuard[T], error) {
	codec, err := buildCodec[T](false)
	if err != nil {
		return ExclusiveGuard[T]{}, err
	}
	value, err := h.rom.AcquireExclusive(id.offset, codec)
	if err != nil {
		return ExclusiveGuard[T]{}, translateErr(err)
	}
	return ExclusiveGuard[T]{heap: h, id: id, value: value.(*T)}, nil
}

// Unload evicts id from RAM if resident, syncing first if dirty, without
// destroying it — the object can be Get/GetMut'd again later and will be
// reloaded from NV.
func Unload[T any](h *Heap, id Identifier[T]) error {
	codec, err := buildCodec[T](false)
	if err != nil {
		return err
	}
	headerErr := h.rom.Unload(id.offset, codec)
	return translateErr(headerErr)
}

// IsResident reports whether id currently occupies a slot in the RAM
// buffer, without itself changing that state.
func IsResident[T any](h *Heap, id Identifier[T]) bool {
	return h.rom.IsResident(id.offset)
}

// IsDataDirty reports whether id's resident copy has unsynced user-data
// changes. False for a non-resident object: there is nothing in RAM to
// be dirty relative to.
func IsDataDirty[T any](h *Heap, id Identifier[T]) bool {
	return h.rom.IsDataDirty(id.offset)
}
