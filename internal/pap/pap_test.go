package pap

import "testing"

type fakeSyncer struct {
	ok    bool
	err   error
	calls int
}

func (f *fakeSyncer) TryPersistAll() (bool, error) {
	f.calls++
	return f.ok, f.err
}

func TestRegisterRejectsSecondRegistration(t *testing.T) {
	a := &Registration{Sync: &fakeSyncer{ok: true}}
	b := &Registration{Sync: &fakeSyncer{ok: true}}

	if err := Register(a); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	defer Unregister(a)

	if err := Register(b); err != ErrAlreadyRegistered {
		t.Fatalf("second Register: got %v, want ErrAlreadyRegistered", err)
	}
}

func TestPersistAllWithNoRegistration(t *testing.T) {
	if _, err := PersistAll(); err != ErrNotRegistered {
		t.Fatalf("PersistAll with nothing registered: got %v, want ErrNotRegistered", err)
	}
}

func TestPersistAllInvokesHandlerAndSyncer(t *testing.T) {
	var handlerCalls int
	syncer := &fakeSyncer{ok: true}
	reg := &Registration{
		Sync: syncer,
		PersistHandler: func(base uintptr, size uint64) {
			handlerCalls++
		},
		BufferSize: 4096,
	}

	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer Unregister(reg)

	acquired, err := PersistAll()
	if !acquired || err != nil {
		t.Fatalf("PersistAll: acquired=%v err=%v", acquired, err)
	}
	if syncer.calls != 1 {
		t.Fatalf("syncer called %d times, want 1", syncer.calls)
	}
	if handlerCalls != 1 {
		t.Fatalf("handler called %d times, want 1", handlerCalls)
	}
}

func TestPersistAllReportsLockContention(t *testing.T) {
	reg := &Registration{Sync: &fakeSyncer{ok: false}}
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	defer Unregister(reg)

	acquired, err := PersistAll()
	if acquired || err != nil {
		t.Fatalf("PersistAll under contention: acquired=%v err=%v, want false/nil", acquired, err)
	}
}

func TestUnregisterIsNoOpForStaleRegistration(t *testing.T) {
	a := &Registration{Sync: &fakeSyncer{ok: true}}
	b := &Registration{Sync: &fakeSyncer{ok: true}}

	if err := Register(a); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	Unregister(b) // must not evict a
	if _, err := PersistAll(); err != nil {
		t.Fatalf("PersistAll after no-op Unregister(b): %v", err)
	}
	Unregister(a)
}
