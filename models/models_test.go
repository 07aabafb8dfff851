package models

import (
	"testing"
	"time"
)

func newRequest() ServiceRequest {
	created := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return ServiceRequest{
		RequestID:        "req-1",
		UserID:           "customer-1",
		UserEmail:        "customer@example.com",
		IssueDescription: "Radiator leaking in the hallway",
		Address:          "Mannerheimintie 1 A 4",
		Status:           StatusNew,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}

func TestRequestLifecycle(t *testing.T) {
	r := newRequest()
	now := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	if err := r.Assign("worker-1", "worker@example.com", now); err != nil {
		t.Fatalf("Assign: unexpected error: %v", err)
	}
	if r.Status != StatusNew {
		t.Fatalf("Assign changed status to %s", r.Status)
	}
	if r.AssignedAt == nil || !r.AssignedAt.Equal(now) {
		t.Fatalf("Assign did not stamp the assignment time")
	}

	started := now.Add(time.Hour)
	if err := r.Start("worker-1", started); err != nil {
		t.Fatalf("Start: unexpected error: %v", err)
	}
	if r.Status != StatusInProgress {
		t.Fatalf("After Start: status %s, want %s", r.Status, StatusInProgress)
	}
	if r.StartedAt == nil || !r.StartedAt.Equal(started) {
		t.Fatalf("Start did not stamp the start time")
	}

	finished := started.Add(2 * time.Hour)
	if err := r.Complete("worker-1", "Replaced the valve", finished); err != nil {
		t.Fatalf("Complete: unexpected error: %v", err)
	}
	if r.Status != StatusDone {
		t.Fatalf("After Complete: status %s, want %s", r.Status, StatusDone)
	}
	if r.FinishedAt == nil || !r.FinishedAt.Equal(finished) {
		t.Fatalf("Complete did not stamp the finish time")
	}
	if r.WorkerComment != "Replaced the valve" {
		t.Fatalf("Complete dropped the worker comment")
	}
}

func TestStartChecksAssigneeAndState(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	r := newRequest()
	if err := r.Assign("worker-1", "worker@example.com", now); err != nil {
		t.Fatalf("Assign: unexpected error: %v", err)
	}
	if err := r.Start("worker-2", now); err != ErrNotAssignee {
		t.Fatalf("Start by another worker: got %v, want ErrNotAssignee", err)
	}
	if r.Status != StatusNew || r.StartedAt != nil {
		t.Fatalf("Rejected Start mutated the request")
	}

	if err := r.Start("worker-1", now); err != nil {
		t.Fatalf("Start: unexpected error: %v", err)
	}
	if err := r.Start("worker-1", now); err != ErrNotNew {
		t.Fatalf("Second Start: got %v, want ErrNotNew", err)
	}
}

func TestCompleteRequiresInProgress(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	r := newRequest()
	if err := r.Assign("worker-1", "worker@example.com", now); err != nil {
		t.Fatalf("Assign: unexpected error: %v", err)
	}
	if err := r.Complete("worker-1", "", now); err != ErrNotInProgress {
		t.Fatalf("Complete of new request: got %v, want ErrNotInProgress", err)
	}
	if r.Status != StatusNew || r.FinishedAt != nil {
		t.Fatalf("Rejected Complete mutated the request")
	}
}

func TestDoneIsTerminal(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	r := newRequest()
	if err := r.Assign("worker-1", "worker@example.com", now); err != nil {
		t.Fatalf("Assign: unexpected error: %v", err)
	}
	if err := r.Start("worker-1", now); err != nil {
		t.Fatalf("Start: unexpected error: %v", err)
	}
	if err := r.Complete("worker-1", "", now); err != nil {
		t.Fatalf("Complete: unexpected error: %v", err)
	}

	// No transition leads out of done.
	if err := r.Start("worker-1", now); err != ErrNotNew {
		t.Fatalf("Start of done request: got %v, want ErrNotNew", err)
	}
	if err := r.Complete("worker-1", "", now); err != ErrNotInProgress {
		t.Fatalf("Complete of done request: got %v, want ErrNotInProgress", err)
	}
	if err := r.Assign("worker-2", "other@example.com", now); err != ErrAlreadyDone {
		t.Fatalf("Assign of done request: got %v, want ErrAlreadyDone", err)
	}
	if r.Status != StatusDone {
		t.Fatalf("Done request left the done state")
	}
}

func TestPunchTime(t *testing.T) {
	p := Punch{At: "2025-01-01T08:00:00Z"}
	want := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	if got := p.Time(); !got.Equal(want) {
		t.Fatalf("Time: got %v, want %v", got, want)
	}

	if got := (Punch{At: "yesterday"}).Time(); !got.IsZero() {
		t.Fatalf("Malformed instant: got %v, want zero time", got)
	}
}

func TestWorkSessionActive(t *testing.T) {
	s := WorkSession{ID: "1", Started: Punch{At: "2025-01-01T08:00:00Z"}}
	if !s.Active() {
		t.Fatalf("Session without ended punch is not active")
	}
	s.Ended = &Punch{At: "2025-01-01T16:00:00Z"}
	if s.Active() {
		t.Fatalf("Closed session reports active")
	}
}
