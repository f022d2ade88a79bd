package sessions

import (
	"sync"
	"testing"
	"time"

	"github.com/shopfloor/measure-backend/internal/platform/logger"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	return NewStore(ttl, log)
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t, time.Hour)

	session := store.Create("R1", "Asha", true)
	if session.SessionID == "" {
		t.Fatalf("expected non-empty session id")
	}
	if session.Status != StatusPendingCalibration {
		t.Fatalf("unexpected status: got=%q want=%q", session.Status, StatusPendingCalibration)
	}
	if !session.CalibrationRequired {
		t.Fatalf("expected calibration_required=true")
	}

	got := store.Get(session.SessionID)
	if got == nil {
		t.Fatalf("expected session to be retrievable")
	}
	if got.RollNumber != "R1" || got.Name != "Asha" {
		t.Fatalf("unexpected session fields: got=%q/%q", got.RollNumber, got.Name)
	}
}

func TestGetUnknownID(t *testing.T) {
	store := newTestStore(t, time.Hour)
	if got := store.Get("nope"); got != nil {
		t.Fatalf("expected nil for unknown id, got=%+v", got)
	}
}

func TestSameRollNumberGetsIndependentSessions(t *testing.T) {
	store := newTestStore(t, time.Hour)
	a := store.Create("R1", "Asha", false)
	b := store.Create("R1", "Asha", false)
	if a.SessionID == b.SessionID {
		t.Fatalf("expected distinct session ids, both=%q", a.SessionID)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	store := newTestStore(t, time.Hour)
	session := store.Create("R1", "Asha", true)
	createdAt := store.Get(session.SessionID).CreatedAt

	if !store.Complete(session.SessionID) {
		t.Fatalf("expected first complete to succeed")
	}
	if got := store.Get(session.SessionID).Status; got != StatusCalibrated {
		t.Fatalf("unexpected status after complete: got=%q want=%q", got, StatusCalibrated)
	}

	if !store.Complete(session.SessionID) {
		t.Fatalf("expected repeated complete to still report true")
	}
	after := store.Get(session.SessionID)
	if after.Status != StatusCalibrated {
		t.Fatalf("repeated complete changed status: got=%q", after.Status)
	}
	if !after.CreatedAt.Equal(createdAt) {
		t.Fatalf("repeated complete changed created_at: got=%v want=%v", after.CreatedAt, createdAt)
	}
}

func TestCompleteUnknownID(t *testing.T) {
	store := newTestStore(t, time.Hour)
	if store.Complete("nope") {
		t.Fatalf("expected complete of unknown id to report false")
	}
}

func TestSweepExpired(t *testing.T) {
	store := newTestStore(t, time.Hour)
	old := store.Create("R1", "Asha", true)
	fresh := store.Create("R2", "Binod", false)

	// Age the first session past the TTL; status must not matter.
	store.Complete(old.SessionID)
	store.mu.Lock()
	store.sessions[old.SessionID].CreatedAt = time.Now().Add(-2 * time.Hour)
	store.mu.Unlock()

	removed := store.SweepExpired()
	if removed != 1 {
		t.Fatalf("unexpected sweep count: got=%d want=1", removed)
	}
	if store.Get(old.SessionID) != nil {
		t.Fatalf("expected expired session to be gone")
	}
	if store.Get(fresh.SessionID) == nil {
		t.Fatalf("expected fresh session to survive sweep")
	}
}

func TestCreateSweepsOpportunistically(t *testing.T) {
	store := newTestStore(t, time.Hour)
	old := store.Create("R1", "Asha", true)
	store.mu.Lock()
	store.sessions[old.SessionID].CreatedAt = time.Now().Add(-2 * time.Hour)
	store.mu.Unlock()

	store.Create("R2", "Binod", false)
	if store.Get(old.SessionID) != nil {
		t.Fatalf("expected stale session to be swept on create")
	}
}

func TestConcurrentCreateAndComplete(t *testing.T) {
	store := newTestStore(t, time.Hour)

	var wg sync.WaitGroup
	ids := make([]string, 50)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session := store.Create("R1", "Asha", true)
			ids[i] = session.SessionID
			store.Complete(session.SessionID)
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		got := store.Get(id)
		if got == nil {
			t.Fatalf("lost session %q under concurrency", id)
		}
		if got.Status != StatusCalibrated {
			t.Fatalf("session %q not calibrated: got=%q", id, got.Status)
		}
	}
}
