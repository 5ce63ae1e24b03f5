package core

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStore_DispatchAll(t *testing.T) {
	st := NewStore()
	if _, err := st.Dispatch(Load{Rows: []Row{row("A"), row("B")}}); err != nil {
		t.Fatalf("Load error = %v", err)
	}

	steps, err := st.DispatchAll(
		BeginEdit{Index: 1},
		ChangeField{Key: FieldName, Value: TextValue("B2")},
		Save{},
	)
	if err != nil {
		t.Fatalf("DispatchAll() error = %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(steps))
	}
	if steps[1].Prev.Table[1].Name.String() != "B" || steps[1].Next.Table[1].Name.String() != "B2" {
		t.Errorf("step 1 does not carry the states around the change")
	}
	if got := st.Snapshot().Table[1].Name.String(); got != "B2" {
		t.Errorf("stored name = %q, want B2", got)
	}
}

func TestStore_DispatchAllIsAtomic(t *testing.T) {
	st := NewStore()
	_, _ = st.Dispatch(Load{Rows: []Row{row("A")}})
	before := st.Snapshot()

	_, err := st.DispatchAll(
		BeginEdit{Index: 0},
		ChangeField{Key: FieldName, Value: TextValue("changed")},
		Delete{Index: 9},
	)
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("error = %v, want ErrIndexOutOfRange", err)
	}

	after := st.Snapshot()
	if after.Version != before.Version || after.Editing() || after.Table[0].Name.String() != "A" {
		t.Errorf("failed batch leaked into the store: %+v", after)
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	st := NewStore()
	_, _ = st.Dispatch(Load{Rows: []Row{row("A")}})

	snap := st.Snapshot()
	snap.Table[0] = row("mutated")

	if got := st.Snapshot().Table[0].Name.String(); got != "A" {
		t.Errorf("snapshot aliases the store: %q", got)
	}
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	st := NewStore()
	_, _ = st.Dispatch(Load{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.Dispatch(Add{})
		}()
	}
	wg.Wait()

	if got := len(st.Snapshot().Table); got != 50 {
		t.Errorf("got %d rows, want 50", got)
	}
}

func TestStore_LastAccess(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st := NewStore()
	st.now = func() time.Time { return now }

	st.Snapshot()
	if !st.LastAccess().Equal(now) {
		t.Errorf("LastAccess() = %v, want %v", st.LastAccess(), now)
	}
}

func TestSessions_GetOrCreate(t *testing.T) {
	reg := NewSessions(time.Hour, 0)

	id, st, created := reg.GetOrCreate("")
	if !created || st == nil || id == "" {
		t.Fatalf("GetOrCreate(\"\") = %q, %v, %v", id, st, created)
	}

	again, st2, created := reg.GetOrCreate(id)
	if created || again != id || st2 != st {
		t.Errorf("GetOrCreate(existing) issued a new session")
	}

	for _, bad := range []string{"not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
		newID, _, created := reg.GetOrCreate(bad)
		if !created || newID == bad {
			t.Errorf("GetOrCreate(%q) = %q, created %v", bad, newID, created)
		}
	}

	if got := reg.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestSessions_Delete(t *testing.T) {
	reg := NewSessions(time.Hour, 0)
	id, _ := reg.Create()
	reg.Delete(id)

	if _, ok := reg.Get(id); ok {
		t.Error("session still present after Delete")
	}
}

func TestSessions_Sweep(t *testing.T) {
	reg := NewSessions(time.Hour, 0)
	now := time.Now()

	idleID, idle := reg.Create()
	idle.now = func() time.Time { return now.Add(-2 * time.Hour) }
	idle.Snapshot()

	activeID, _ := reg.Create()

	if removed := reg.Sweep(now); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if _, ok := reg.Get(idleID); ok {
		t.Error("idle session survived the sweep")
	}
	if _, ok := reg.Get(activeID); !ok {
		t.Error("active session was swept")
	}
}

func TestSessions_EvictsLeastRecentlyUsed(t *testing.T) {
	reg := NewSessions(time.Hour, 2)
	now := time.Now()

	oldID, old := reg.Create()
	old.now = func() time.Time { return now.Add(-time.Minute) }
	old.Snapshot()

	keptID, _ := reg.Create()
	newID, _ := reg.Create()

	if reg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", reg.Len())
	}
	if _, ok := reg.Get(oldID); ok {
		t.Error("least recently used session was not evicted")
	}
	for _, id := range []string{keptID, newID} {
		if _, ok := reg.Get(id); !ok {
			t.Errorf("session %s evicted", id)
		}
	}
}

func TestNewSessions_DefaultIdleTimeout(t *testing.T) {
	if reg := NewSessions(0, 0); reg.idleTimeout != DefaultSessionIdleTimeout {
		t.Errorf("idleTimeout = %v, want %v", reg.idleTimeout, DefaultSessionIdleTimeout)
	}
}
