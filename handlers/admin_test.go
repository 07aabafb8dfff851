package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"maintdesk/models"
)

func doc(id, startedISO string, hours float64) models.WorkSessionDoc {
	started, err := time.Parse(time.RFC3339, startedISO)
	if err != nil {
		panic(err)
	}
	d := models.WorkSessionDoc{
		ID:           id,
		UID:          "worker-1",
		DayKey:       startedISO[:10],
		Status:       models.SessionActive,
		StartedAt:    started,
		StartedAtISO: startedISO,
	}
	if hours > 0 {
		ended := started.Add(time.Duration(hours * float64(time.Hour)))
		d.Status = models.SessionClosed
		d.EndedAt = &ended
		d.EndedAtISO = ended.Format(time.RFC3339)
	}
	return d
}

func TestGroupDocsByMonth(t *testing.T) {
	sessions := []models.WorkSessionDoc{
		doc("3", "2025-02-10T08:00:00Z", 1),
		doc("2", "2025-02-01T08:00:00Z", 2.5),
		doc("1", "2025-01-20T08:00:00Z", 8),
	}

	sections := groupDocsByMonth(sessions)
	if len(sections) != 2 {
		t.Fatalf("Got %d sections, want 2", len(sections))
	}
	if sections[0].Key != "2025-02" || sections[1].Key != "2025-01" {
		t.Fatalf("Bad section keys: %s, %s", sections[0].Key, sections[1].Key)
	}
	if sections[0].Total != "03:30:00" {
		t.Errorf("February total: got %s, want 03:30:00", sections[0].Total)
	}
	if sections[1].Total != "08:00:00" {
		t.Errorf("January total: got %s, want 08:00:00", sections[1].Total)
	}
}

func TestDocDuration(t *testing.T) {
	closed := doc("1", "2025-01-01T08:00:00Z", 1.5)
	if got := docDuration(closed); got != 90*time.Minute {
		t.Errorf("Closed session: got %v, want 1h30m", got)
	}

	active := doc("2", "2025-01-01T08:00:00Z", 0)
	if got := docDuration(active); got != 0 {
		t.Errorf("Active session: got %v, want 0", got)
	}

	// A clock skew that puts the end before the start clamps at zero.
	skewed := doc("3", "2025-01-01T08:00:00Z", 1)
	earlier := skewed.StartedAt.Add(-time.Hour)
	skewed.EndedAt = &earlier
	if got := docDuration(skewed); got != 0 {
		t.Errorf("Skewed session: got %v, want 0", got)
	}
}

func TestParseRange(t *testing.T) {
	cases := []struct {
		query    string
		wantDays int // 0 means nil (no cutoff)
	}{
		{"", 30},
		{"range=7d", 7},
		{"range=30d", 30},
		{"range=all", 0},
		{"range=bogus", 30},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/api/admin/sessions?"+tc.query, nil)
		since := parseRange(r)
		if tc.wantDays == 0 {
			if since != nil {
				t.Errorf("parseRange(%q): got %v, want nil", tc.query, since)
			}
			continue
		}
		if since == nil {
			t.Errorf("parseRange(%q): got nil, want cutoff", tc.query)
			continue
		}
		want := time.Now().AddDate(0, 0, -tc.wantDays)
		if d := since.Sub(want); d < -time.Minute || d > time.Minute {
			t.Errorf("parseRange(%q): cutoff off by %v", tc.query, d)
		}
	}
}
