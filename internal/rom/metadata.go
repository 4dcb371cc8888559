package rom

// headerSize models the fixed cost, in RAM bytes, of a resident object's
// metadata header for budget-accounting purposes — the header itself is
// kept as an ordinary heap-allocated struct (see the next field below),
// not bytes packed into the shared RAM buffer, so this constant stands in
// for "sizeof(header)" in the layout formula without requiring unsafe
// struct-in-buffer placement (see DESIGN.md's note on this adaptation).
const headerSize = 40

func alignUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// metadataHeader is ROM's per-object bookkeeping record. It is never
// itself placed inside the shared RAM buffer; only its accounting fields
// (ramOff, ramSize) describe the slice of that buffer the object is
// charged against. The live Go value is kept in Manager.values, addressed
// by offset, so normal Go GC sees and traces it like any other value.
type metadataHeader struct {
	next   *metadataHeader
	offset uint64 // NV backing offset; also the object's stable identity
	status statusFlags

	sharedCount uint16
	dataSize    uint32
	dataAlign   uint16

	backupSlot uint64 // NV offset of this object's backup record
	ramOff     uint64 // offset into the RAM buffer reserved for this object
	ramSize    uint64 // bytes reserved (header accounting + padding + data)

	dirty *dirtyBitmap // nil unless partial tracking is enabled
	codec Codec         // re-supplied by the root package on every Allocate/load
}

// userRAMOffset is where this object's user-data bytes would begin within
// the RAM buffer, under the header+padding+data layout.
func (h *metadataHeader) userRAMOffset() uint64 {
	return h.ramOff + alignUp(headerSize, uint64(h.dataAlign))
}

func (h *metadataHeader) isDataDirty() bool     { return h.status.has(flagDataDirty) }
func (h *metadataHeader) isMetaDirty() bool     { return h.status.has(flagMetaDirty) }
func (h *metadataHeader) isMutRefActive() bool  { return h.status.has(flagMutActive) }
func (h *metadataHeader) isSharedActive() bool  { return h.sharedCount > 0 }
func (h *metadataHeader) isInUse() bool         { return h.isMutRefActive() || h.isSharedActive() }
func (h *metadataHeader) wasAccessed() bool     { return h.status.has(flagClockAccessed) }
func (h *metadataHeader) wasModified() bool     { return h.status.has(flagClockModified) }
func (h *metadataHeader) partialTracking() bool { return h.status.has(flagPartialTracking) }

// residentList is a singly-linked list of resident metadata headers kept
// in ascending RAM-buffer order (by ramOff). Lookups are by NV offset,
// which is the object's stable identity across evict/reload; the two
// orders are unrelated, so find and remove scan the whole list.
type residentList struct {
	head  *metadataHeader
	count int
}

func (l *residentList) find(offset uint64) *metadataHeader {
	for h := l.head; h != nil; h = h.next {
		if h.offset == offset {
			return h
		}
	}
	return nil
}

func (l *residentList) insert(h *metadataHeader) {
	if l.head == nil || h.ramOff < l.head.ramOff {
		h.next = l.head
		l.head = h
		l.count++
		return
	}
	prev := l.head
	for prev.next != nil && prev.next.ramOff < h.ramOff {
		prev = prev.next
	}
	h.next = prev.next
	prev.next = h
	l.count++
}

func (l *residentList) remove(offset uint64) *metadataHeader {
	if l.head == nil {
		return nil
	}
	if l.head.offset == offset {
		removed := l.head
		l.head = l.head.next
		l.count--
		removed.next = nil
		return removed
	}
	prev := l.head
	for prev.next != nil && prev.next.offset != offset {
		prev = prev.next
	}
	if prev.next == nil {
		return nil
	}
	removed := prev.next
	prev.next = removed.next
	l.count--
	removed.next = nil
	return removed
}
