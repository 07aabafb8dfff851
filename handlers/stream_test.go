package handlers

import (
	"testing"

	"maintdesk/models"
)

func snapshot(ids ...string) []models.ServiceRequest {
	rows := make([]models.ServiceRequest, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.ServiceRequest{RequestID: id})
	}
	return rows
}

func TestPushLatestDelivers(t *testing.T) {
	ch := make(chan []models.ServiceRequest, 1)
	pushLatest(ch, snapshot("a"))

	got := <-ch
	if len(got) != 1 || got[0].RequestID != "a" {
		t.Fatalf("Got %v, want snapshot a", got)
	}
}

func TestPushLatestReplacesStaleSnapshot(t *testing.T) {
	ch := make(chan []models.ServiceRequest, 1)

	// An unconsumed older snapshot must never shadow a newer one: the
	// consumer would otherwise render the stale list until the next change.
	pushLatest(ch, snapshot("a"))
	pushLatest(ch, snapshot("a", "b"))

	got := <-ch
	if len(got) != 2 {
		t.Fatalf("Got stale snapshot %v, want the fresh one", got)
	}

	select {
	case extra := <-ch:
		t.Fatalf("Unexpected extra snapshot: %v", extra)
	default:
	}
}
