package store

import (
	"encoding/json"
	"testing"

	"github.com/dgraph-io/badger"
	"github.com/google/go-cmp/cmp"

	"maintdesk/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: unexpected error: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func sampleSessions(n int) []models.WorkSession {
	point := models.GeoPoint{Latitude: 60.1699, Longitude: 24.9384}
	out := make([]models.WorkSession, 0, n)
	for i := n; i > 0; i-- {
		out = append(out, models.WorkSession{
			ID:      string(rune('a' + i)),
			Started: models.Punch{At: "2025-01-01T08:00:00Z", Point: point},
			Ended:   &models.Punch{At: "2025-01-01T16:00:00Z", Point: point},
		})
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	s := openTestStore(t)

	for _, n := range []int{0, 1, 5} {
		want := sampleSessions(n)
		if err := s.Save("worker-1", want); err != nil {
			t.Fatalf("Save %d sessions: unexpected error: %v", n, err)
		}
		got, err := s.Load("worker-1")
		if err != nil {
			t.Fatalf("Load: unexpected error: %v", err)
		}
		if diff := cmp.Diff(got, want); diff != "" {
			t.Fatalf("Round trip of %d sessions; diff (-got +want)\n%s", n, diff)
		}
	}
}

func TestLoadMissingOwner(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Load("nobody")
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("Load of missing owner: got %v, want empty list", got)
	}
}

func TestLoadCorruptPayload(t *testing.T) {
	s := openTestStore(t)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+"worker-1"), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("Seeding corrupt payload: %v", err)
	}

	got, err := s.Load("worker-1")
	if err != nil {
		t.Fatalf("Load of corrupt payload: unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Load of corrupt payload: got %d sessions, want 0", len(got))
	}
}

func TestOwnersIsolated(t *testing.T) {
	s := openTestStore(t)

	first := sampleSessions(2)
	second := sampleSessions(1)
	if err := s.Save("worker-1", first); err != nil {
		t.Fatalf("Save: unexpected error: %v", err)
	}
	if err := s.Save("worker-2", second); err != nil {
		t.Fatalf("Save: unexpected error: %v", err)
	}

	got, err := s.Load("worker-1")
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, first); diff != "" {
		t.Fatalf("worker-1 sessions; diff (-got +want)\n%s", diff)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save("worker-1", sampleSessions(3)); err != nil {
		t.Fatalf("Save: unexpected error: %v", err)
	}
	want := sampleSessions(1)
	if err := s.Save("worker-1", want); err != nil {
		t.Fatalf("Save: unexpected error: %v", err)
	}

	got, err := s.Load("worker-1")
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Fatalf("Save did not replace the list; diff (-got +want)\n%s", diff)
	}
}

func TestStoredPayloadIsJSON(t *testing.T) {
	s := openTestStore(t)

	if err := s.Save("worker-1", sampleSessions(1)); err != nil {
		t.Fatalf("Save: unexpected error: %v", err)
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + "worker-1"))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		t.Fatalf("Reading raw payload: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("Stored payload is not valid JSON: %q", raw)
	}
}
