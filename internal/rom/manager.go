package rom

import (
	"math"
	"sync"
	"time"

	"github.com/marmos91/vnvheap/internal/nra"
	"github.com/marmos91/vnvheap/internal/omp"
	"github.com/marmos91/vnvheap/internal/ramalloc"
	"github.com/marmos91/vnvheap/internal/rambuf"
	"github.com/marmos91/vnvheap/internal/vnvlog"
	"github.com/marmos91/vnvheap/metrics"
	"github.com/marmos91/vnvheap/storage"
)

// metaDirtyReserve is the slice of dirty budget a resident object's own
// metadata churn is charged, independent of whether its user data is
// dirty. It is released again on eviction.
const metaDirtyReserve = 8

// Codec is how the root package, which alone knows the concrete type T,
// hands ROM the ability to turn a value into NV bytes and back. Manager
// itself never parameterizes over T: the live value lives in Manager.values
// as a boxed any (typically *T), keeping it ordinarily GC-traced instead of
// embedded as raw bytes in the shared RAM buffer (see DESIGN.md's note on
// this adaptation).
type Codec struct {
	Size    uint64
	Align   uint64
	Partial bool
	Encode  func(dst []byte, value any)
	Decode  func(src []byte) any
}

// Manager is the resident object manager: it owns the shared RAM buffer's
// allocator, the NV backup-record chain, the dirty-byte budget, and the
// resident list, and mediates every allocate/acquire/release/evict/sync
// operation through a single mutex, chosen here because the persist
// access point additionally needs a single lock it can try-lock from a
// signal handler.
type Manager struct {
	mu sync.Mutex

	ram    ramalloc.Allocator
	nraLoc *nra.Buddy
	drv    storage.Driver

	backups   *backupList
	policy    omp.Policy
	residents residentList

	values map[uint64]any

	dirtyUsed uint64
	maxDirty  uint64

	metrics metrics.HeapMetrics // nil is valid: disables all recording
}

// NewManager reserves the backup list's head record via nraLoc and returns a
// ready-to-use Manager. ram must already be initialized over the RAM buffer
// the caller intends to dedicate to resident objects. m may be nil to
// disable metrics entirely.
func NewManager(ram ramalloc.Allocator, maxDirty uint64, policy omp.Policy, nraLoc *nra.Buddy, drv storage.Driver, m metrics.HeapMetrics) (*Manager, error) {
	headOffset, err := nraLoc.Allocate(backupHeaderSize, 8)
	if err != nil {
		return nil, err
	}
	backups, err := newBackupList(headOffset, drv)
	if err != nil {
		return nil, err
	}
	return &Manager{
		ram:      ram,
		nraLoc:   nraLoc,
		drv:      drv,
		backups:  backups,
		policy:   policy,
		values:   make(map[uint64]any),
		maxDirty: maxDirty,
		metrics:  m,
	}, nil
}

func normalizeAlign(align uint64) uint64 {
	if align < 1 {
		return 1
	}
	return align
}

func (m *Manager) recordOOM() {
	if m.metrics != nil {
		m.metrics.RecordOutOfMemory()
	}
}

func (m *Manager) recordGuardConflict() {
	if m.metrics != nil {
		m.metrics.RecordGuardConflict()
	}
}

// reportGauges refreshes the point-in-time gauges after a structural
// mutation to the resident list or the dirty budget.
func (m *Manager) reportGauges() {
	if m.metrics != nil {
		m.metrics.RecordResidentCount(m.residents.count)
		m.metrics.RecordDirtyBytes(int64(m.dirtyUsed))
	}
}

// Allocate reserves a backup slot and persists value's initial encoding;
// this part may only fail if the non-resident allocator cannot reserve a
// slot or storage I/O fails. It then attempts to place the object as a
// resident copy; if no room can be made even after asking the policy to
// evict, the object is simply left non-resident — its initial value is
// already durably on NV, so this is not a failure.
func (m *Manager) Allocate(codec Codec, value any) (uint64, error) {
	start := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if m.metrics != nil {
			m.metrics.ObserveAllocate(time.Since(start))
		}
	}()

	size := recordSize(codec.Size, codec.Align)
	recordOffset, err := m.nraLoc.Allocate(size, codec.Align)
	if err != nil {
		return 0, err
	}

	status := statusFlags(0)
	status.set(flagPartialTracking, codec.Partial)

	if err := writeRecordHeader(m.drv, recordOffset, status, noneOffset, uint32(codec.Size), uint16(codec.Align)); err != nil {
		_ = m.nraLoc.Deallocate(recordOffset, size)
		return 0, err
	}
	if err := m.backups.link(recordOffset); err != nil {
		_ = m.nraLoc.Deallocate(recordOffset, size)
		return 0, err
	}

	buf := rambuf.Get(int(codec.Size))
	codec.Encode(buf, value)
	err = m.drv.Write(userDataOffset(recordOffset, codec.Align), buf)
	rambuf.Put(buf)
	if err != nil {
		_ = m.nraLoc.Deallocate(recordOffset, size)
		return 0, err
	}

	align := normalizeAlign(codec.Align)
	ramSize := alignUp(headerSize, align) + codec.Size
	ramOff, ok := m.ram.Alloc(ramSize, align)
	if !ok {
		if uerr := m.policy.UnloadObjects(omp.Layout{Size: ramSize, Align: align}, m.iterator()); uerr == nil {
			ramOff, ok = m.ram.Alloc(ramSize, align)
		}
	}
	if !ok {
		vnvlog.Debug("allocate: left non-resident, RAM unavailable", vnvlog.Offset(recordOffset), vnvlog.Size(ramSize))
		return recordOffset, nil
	}

	if err := m.reserveDirtyBudget(metaDirtyReserve); err != nil {
		m.ram.Free(ramOff, ramSize, align)
		vnvlog.Debug("allocate: left non-resident, dirty budget unavailable", vnvlog.Offset(recordOffset))
		return recordOffset, nil
	}

	h := &metadataHeader{
		offset:     recordOffset,
		status:     status,
		dataSize:   uint32(codec.Size),
		dataAlign:  uint16(codec.Align),
		backupSlot: recordOffset,
		ramOff:     ramOff,
		ramSize:    ramSize,
		codec:      codec,
	}
	if h.partialTracking() {
		h.dirty = newDirtyBitmap(uint64(h.dataSize))
	}
	debugAssertLayout(h)
	m.residents.insert(h)
	m.values[recordOffset] = value
	m.reportGauges()

	vnvlog.Debug("allocate: resident", vnvlog.Offset(recordOffset), vnvlog.Size(codec.Size))
	return recordOffset, nil
}

// ensureResident returns the resident header for offset, loading it from NV
// first if it is not currently resident.
func (m *Manager) ensureResident(offset uint64, codec Codec) (*metadataHeader, error) {
	if h := m.residents.find(offset); h != nil {
		return h, nil
	}
	return m.load(offset, codec)
}

func (m *Manager) load(offset uint64, codec Codec) (*metadataHeader, error) {
	status, err := readStatus(m.drv, offset)
	if err != nil {
		return nil, err
	}

	buf := rambuf.Get(int(codec.Size))
	err = m.drv.Read(userDataOffset(offset, codec.Align), buf)
	if err != nil {
		rambuf.Put(buf)
		return nil, err
	}
	value := codec.Decode(buf)
	rambuf.Put(buf)

	align := normalizeAlign(codec.Align)
	ramSize := alignUp(headerSize, align) + codec.Size
	ramOff, ok := m.ram.Alloc(ramSize, align)
	if !ok {
		if uerr := m.policy.UnloadObjects(omp.Layout{Size: ramSize, Align: align}, m.iterator()); uerr != nil {
			m.recordOOM()
			vnvlog.Warn("load: out of RAM, eviction could not make room", vnvlog.Offset(offset), vnvlog.Size(ramSize))
			return nil, ErrOutOfMemory
		}
		if ramOff, ok = m.ram.Alloc(ramSize, align); !ok {
			m.recordOOM()
			vnvlog.Warn("load: out of RAM after eviction sweep", vnvlog.Offset(offset), vnvlog.Size(ramSize))
			return nil, ErrOutOfMemory
		}
	}

	if err := m.reserveDirtyBudget(metaDirtyReserve); err != nil {
		m.ram.Free(ramOff, ramSize, align)
		return nil, err
	}

	h := &metadataHeader{
		offset:     offset,
		status:     status & flagPartialTracking, // runtime-only bits never persist across an eviction
		dataSize:   uint32(codec.Size),
		dataAlign:  uint16(codec.Align),
		backupSlot: offset,
		ramOff:     ramOff,
		ramSize:    ramSize,
		codec:      codec,
	}
	if h.partialTracking() {
		h.dirty = newDirtyBitmap(uint64(h.dataSize))
	}
	debugAssertLayout(h)
	m.residents.insert(h)
	m.values[offset] = value
	m.reportGauges()
	vnvlog.Debug("load: reloaded from NV", vnvlog.Offset(offset))
	return h, nil
}

// AcquireShared ensures residency, rejects a concurrent exclusive guard,
// and bumps the shared count.
func (m *Manager) AcquireShared(offset uint64, codec Codec) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.ensureResident(offset, codec)
	if err != nil {
		return nil, err
	}
	if h.isMutRefActive() || h.sharedCount == math.MaxUint16 {
		m.recordGuardConflict()
		return nil, ErrGuardConflict
	}
	h.sharedCount++
	m.policy.AccessObject(&item{m: m, h: h})
	return m.values[offset], nil
}

// ReleaseShared runs on a SharedGuard drop.
func (m *Manager) ReleaseShared(offset uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h := m.residents.find(offset); h != nil && h.sharedCount > 0 {
		h.sharedCount--
	}
}

// AcquireExclusive ensures residency, rejects a conflicting guard, reserves
// the data-dirty budget up front, and marks the object modified.
func (m *Manager) AcquireExclusive(offset uint64, codec Codec) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.ensureResident(offset, codec)
	if err != nil {
		return nil, err
	}
	if h.isMutRefActive() || h.isSharedActive() {
		m.recordGuardConflict()
		return nil, ErrGuardConflict
	}
	// Pin the object while reserving, so the policy's sweep cannot pick
	// the very object being acquired as a victim.
	h.status.set(flagMutActive, true)
	if !h.isDataDirty() {
		if err := m.reserveDirtyBudget(uint64(h.dataSize)); err != nil {
			h.status.set(flagMutActive, false)
			return nil, err
		}
		h.status.set(flagDataDirty, true)
	}
	m.policy.ModifyObject(&item{m: m, h: h})
	return m.values[offset], nil
}

// ReleaseExclusive runs on an ExclusiveGuard drop.
func (m *Manager) ReleaseExclusive(offset uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h := m.residents.find(offset); h != nil {
		h.status.set(flagMutActive, false)
	}
}

// MarkDirtyRange records offset/size within a partial-tracking object's
// dirty bitmap. Callers are expected to hold the guard that made the
// write, so no additional synchronization is needed here beyond the
// Manager's own mutex.
func (m *Manager) MarkDirtyRange(id uint64, rangeOffset, size uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.residents.find(id)
	if h == nil || h.dirty == nil {
		return
	}
	h.dirty.markRange(rangeOffset, size)
}

// Drop makes the object resident, destructs it in RAM with no write-back,
// then returns its backup slot to the non-resident allocator.
func (m *Manager) Drop(offset uint64, codec Codec, destruct func(any)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.ensureResident(offset, codec)
	if err != nil {
		return err
	}
	if h.isInUse() {
		return ErrStillReachable
	}

	if destruct != nil {
		destruct(m.values[offset])
	}

	m.residents.remove(offset)
	delete(m.values, offset)
	m.ram.Free(h.ramOff, h.ramSize, normalizeAlign(uint64(h.dataAlign)))
	if h.isDataDirty() {
		m.dirtyUsed -= uint64(h.dataSize)
	}
	m.dirtyUsed -= metaDirtyReserve
	m.reportGauges()

	size := recordSize(uint64(h.dataSize), uint64(h.dataAlign))
	return m.nraLoc.Deallocate(offset, size)
}

// Unload evicts offset from RAM if it is currently resident, syncing
// first if dirty. It is a no-op if offset is not resident.
func (m *Manager) Unload(offset uint64, codec Codec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.residents.find(offset)
	if h == nil {
		return nil
	}
	_, err := m.unloadHeader(h)
	return err
}

// ResidentCount reports how many objects currently occupy RAM.
func (m *Manager) ResidentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.residents.count
}

// IsResident reports whether offset currently occupies RAM.
func (m *Manager) IsResident(offset uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.residents.find(offset) != nil
}

// IsDataDirty reports whether offset is resident and has unsynced
// user-data changes.
func (m *Manager) IsDataDirty(offset uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.residents.find(offset)
	return h != nil && h.isDataDirty()
}

// reserveDirtyBudget charges need bytes against the dirty budget, asking
// the policy to sync enough dirty data first if the budget is currently
// too tight.
func (m *Manager) reserveDirtyBudget(need uint64) error {
	if m.dirtyUsed+need <= m.maxDirty {
		m.dirtyUsed += need
		return nil
	}
	required := (m.dirtyUsed + need) - m.maxDirty
	if err := m.policy.SyncDirtyData(required, m.iterator()); err != nil {
		return ErrDirtyBudget
	}
	if m.dirtyUsed+need > m.maxDirty {
		return ErrDirtyBudget
	}
	m.dirtyUsed += need
	return nil
}

// syncHeader writes h's dirty user data back to NV — the dirty runs only,
// if partial tracking is enabled and a range was marked, else the whole
// region — then clears
// data_dirty on NV only after the data write has landed.
func (m *Manager) syncHeader(h *metadataHeader) (uint64, error) {
	if !h.isDataDirty() {
		return 0, nil
	}
	start := time.Now()

	value := m.values[h.offset]
	buf := rambuf.Get(int(h.dataSize))
	defer rambuf.Put(buf)
	h.codec.Encode(buf, value)

	userOff := userDataOffset(h.offset, uint64(h.dataAlign))
	if h.partialTracking() && h.dirty != nil {
		runs := h.dirty.dirtyRuns(uint64(h.dataSize))
		if len(runs) == 0 {
			runs = append(runs, [2]uint64{0, uint64(h.dataSize)})
		}
		for _, run := range runs {
			if run[0] == run[1] {
				continue
			}
			if err := m.drv.Write(userOff+run[0], buf[run[0]:run[1]]); err != nil {
				vnvlog.Warn("sync: write failed, data_dirty left set", vnvlog.Offset(h.offset), vnvlog.Err(err))
				return 0, err
			}
		}
		h.dirty.clear()
	} else {
		if err := m.drv.Write(userOff, buf); err != nil {
			vnvlog.Warn("sync: write failed, data_dirty left set", vnvlog.Offset(h.offset), vnvlog.Err(err))
			return 0, err
		}
	}

	h.status.set(flagDataDirty, false)
	h.status.set(flagClockModified, false)
	if err := writeStatus(m.drv, h.offset, h.status); err != nil {
		return 0, err
	}
	vnvlog.Debug("sync: wrote dirty data", vnvlog.Offset(h.offset), vnvlog.Size(uint64(h.dataSize)))

	freed := uint64(h.dataSize)
	m.dirtyUsed -= freed
	if m.metrics != nil {
		m.metrics.ObserveSync(int64(freed), time.Since(start))
	}
	m.reportGauges()
	return freed, nil
}

// unloadHeader evicts h entirely, syncing first if dirty.
func (m *Manager) unloadHeader(h *metadataHeader) (uint64, error) {
	if h.isInUse() {
		return 0, ErrStillReachable
	}
	start := time.Now()
	if h.isDataDirty() {
		if _, err := m.syncHeader(h); err != nil {
			return 0, err
		}
	}

	m.residents.remove(h.offset)
	delete(m.values, h.offset)
	m.ram.Free(h.ramOff, h.ramSize, normalizeAlign(uint64(h.dataAlign)))
	m.dirtyUsed -= metaDirtyReserve
	if m.metrics != nil {
		m.metrics.ObserveEvict(int64(h.ramSize), time.Since(start))
	}
	m.reportGauges()
	vnvlog.Debug("evict", vnvlog.Offset(h.offset), vnvlog.Size(h.ramSize))

	return h.ramSize, nil
}

// TryPersistAll is the persist access point's entry point: a non-blocking
// attempt to sync every dirty resident object. It returns ok=false rather
// than blocking if the manager's lock is currently held, since the caller
// may run from an interrupt-like context where blocking is not an option.
func (m *Manager) TryPersistAll() (ok bool, err error) {
	if !m.mu.TryLock() {
		if m.metrics != nil {
			m.metrics.RecordPersistAll(false, 0)
		}
		vnvlog.Debug("persist_all: skipped, manager busy")
		return false, nil
	}
	defer m.mu.Unlock()
	start := time.Now()

	for h := m.residents.head; h != nil; h = h.next {
		if h.isDataDirty() {
			if _, err := m.syncHeader(h); err != nil {
				return true, err
			}
		}
	}
	if err := writeStatus(m.drv, m.backups.headOffset, statusFlags(0)); err != nil {
		return true, err
	}
	if m.metrics != nil {
		m.metrics.RecordPersistAll(true, time.Since(start))
	}
	return true, nil
}

// Shutdown flushes and evicts every resident object. A resident still
// pinned by an open guard at shutdown is a caller bug (every guard should
// have been released by then); rather than fail the whole shutdown over
// it, its data is still synced but it is left resident, and its offset is
// reported back so the caller can log it.
func (m *Manager) Shutdown() (stillPinned []uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for h := m.residents.head; h != nil; {
		next := h.next
		if h.isDataDirty() {
			if _, serr := m.syncHeader(h); serr != nil {
				return stillPinned, serr
			}
		}
		if h.isInUse() {
			stillPinned = append(stillPinned, h.offset)
			vnvlog.Warn("shutdown: resident still pinned by an open guard", vnvlog.Offset(h.offset))
			h = next
			continue
		}
		if _, uerr := m.unloadHeader(h); uerr != nil {
			return stillPinned, uerr
		}
		h = next
	}
	if err := writeStatus(m.drv, m.backups.headOffset, statusFlags(0)); err != nil {
		return stillPinned, err
	}
	return stillPinned, nil
}

// item adapts a metadataHeader to omp.Item without exposing the header type
// itself to the omp package.
type item struct {
	m *Manager
	h *metadataHeader
}

func (it *item) Offset() uint64          { return it.h.offset }
func (it *item) Size() uint64            { return it.h.ramSize }
func (it *item) IsDataDirty() bool       { return it.h.isDataDirty() }
func (it *item) IsMutRefActive() bool    { return it.h.isMutRefActive() }
func (it *item) IsSharedRefActive() bool { return it.h.isSharedActive() }
func (it *item) WasAccessed() bool       { return it.h.wasAccessed() }
func (it *item) SetAccessed(v bool)      { it.h.status.set(flagClockAccessed, v) }
func (it *item) WasModified() bool       { return it.h.wasModified() }
func (it *item) SetModified(v bool)      { it.h.status.set(flagClockModified, v) }

func (it *item) SyncUserData() (uint64, error) { return it.m.syncHeader(it.h) }
func (it *item) Unload() (uint64, error)       { return it.m.unloadHeader(it.h) }

// residentIter is the omp.ResidentIterator Manager hands to its Policy.
type residentIter struct {
	m   *Manager
	cur *metadataHeader
}

func (m *Manager) iterator() *residentIter {
	return &residentIter{m: m, cur: m.residents.head}
}

func (it *residentIter) Reset() { it.cur = it.m.residents.head }

func (it *residentIter) Next() omp.Item {
	if it.cur == nil {
		return nil
	}
	h := it.cur
	it.cur = it.cur.next
	return &item{m: it.m, h: h}
}
