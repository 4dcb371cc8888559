package omp_test

import (
	"testing"

	"github.com/marmos91/vnvheap/internal/omp"
)

type fakeItem struct {
	offset        uint64
	size          uint64
	dataDirty     bool
	mutRefActive  bool
	sharedRefActv bool
	accessed      bool
	modified      bool
	unloaded      bool
}

func (f *fakeItem) Offset() uint64            { return f.offset }
func (f *fakeItem) Size() uint64              { return f.size }
func (f *fakeItem) IsDataDirty() bool         { return f.dataDirty }
func (f *fakeItem) IsMutRefActive() bool      { return f.mutRefActive }
func (f *fakeItem) IsSharedRefActive() bool   { return f.sharedRefActv }
func (f *fakeItem) WasAccessed() bool         { return f.accessed }
func (f *fakeItem) SetAccessed(v bool)        { f.accessed = v }
func (f *fakeItem) WasModified() bool         { return f.modified }
func (f *fakeItem) SetModified(v bool)        { f.modified = v }
func (f *fakeItem) SyncUserData() (uint64, error) {
	f.dataDirty = false
	f.modified = false
	return f.size, nil
}
func (f *fakeItem) Unload() (uint64, error) {
	f.unloaded = true
	return f.size, nil
}

type fakeList struct {
	items []*fakeItem
	pos   int
}

func (l *fakeList) Reset() { l.pos = 0 }
func (l *fakeList) Next() omp.Item {
	if l.pos >= len(l.items) {
		return nil
	}
	item := l.items[l.pos]
	l.pos++
	return item
}

func TestClockSyncDirtyDataGivesEachItemASecondChance(t *testing.T) {
	items := []*fakeItem{
		{offset: 0, size: 64, dataDirty: true, modified: true},
		{offset: 64, size: 64, dataDirty: true, modified: true},
	}
	list := &fakeList{items: items}
	c := omp.NewClock()

	if err := c.SyncDirtyData(64, list); err != nil {
		t.Fatalf("SyncDirtyData() failed: %v", err)
	}

	if items[0].dataDirty {
		t.Fatal("first candidate should have been synced on the second pass, once the second chance granted on the first pass was used up")
	}
	if items[0].modified {
		t.Fatal("modified bit should have been cleared when the second chance was granted")
	}
}

func TestClockSyncDirtyDataSyncsOnSecondPass(t *testing.T) {
	items := []*fakeItem{
		{offset: 0, size: 64, dataDirty: true, modified: true},
	}
	list := &fakeList{items: items}
	c := omp.NewClock()

	if err := c.SyncDirtyData(64, list); err != nil {
		t.Fatalf("SyncDirtyData() failed: %v", err)
	}
	if items[0].dataDirty {
		t.Fatal("single-item sweep: second pass should find the bit cleared and sync it")
	}
}

func TestClockUnloadObjectsSkipsPinnedItems(t *testing.T) {
	items := []*fakeItem{
		{offset: 0, size: 128, mutRefActive: true},
		{offset: 128, size: 128},
	}
	list := &fakeList{items: items}
	c := omp.NewClock()

	if err := c.UnloadObjects(omp.Layout{Size: 128}, list); err != nil {
		t.Fatalf("UnloadObjects() failed: %v", err)
	}
	if items[0].unloaded {
		t.Fatal("item with an active exclusive reference must never be unloaded")
	}
	if !items[1].unloaded {
		t.Fatal("the unpinned item should have been unloaded to satisfy the request")
	}
}

func TestClockSyncDirtyDataFallsBackToUnloadingCleanItems(t *testing.T) {
	// Nothing is dirty, so the modified-hand sweep alone can never free
	// any budget no matter how many passes it makes; only unloading the
	// clean, unpinned resident can release its metadata reserve.
	items := []*fakeItem{
		{offset: 0, size: 8},
	}
	list := &fakeList{items: items}
	c := omp.NewClock()

	if err := c.SyncDirtyData(8, list); err != nil {
		t.Fatalf("SyncDirtyData() failed: %v", err)
	}
	if !items[0].unloaded {
		t.Fatal("clean unpinned resident should have been unloaded to free budget once syncing found nothing dirty")
	}
}

func TestClockSyncDirtyDataFallbackSkipsPinnedCleanItems(t *testing.T) {
	items := []*fakeItem{
		{offset: 0, size: 8, mutRefActive: true},
	}
	list := &fakeList{items: items}
	c := omp.NewClock()

	if err := c.SyncDirtyData(8, list); err == nil {
		t.Fatal("SyncDirtyData() should give up: the only candidate is clean but pinned by an exclusive guard")
	}
	if items[0].unloaded {
		t.Fatal("item with an active exclusive reference must never be unloaded")
	}
}

func TestClockSyncDirtyDataGivesUpWhenEverythingIsPinned(t *testing.T) {
	items := []*fakeItem{
		{offset: 0, size: 64, dataDirty: true, mutRefActive: true},
	}
	list := &fakeList{items: items}
	c := omp.NewClock()

	if err := c.SyncDirtyData(64, list); err == nil {
		t.Fatal("SyncDirtyData() should give up when the only dirty candidate is pinned")
	}
}
