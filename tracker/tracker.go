// Package tracker implements the punch-clock session recorder: an ordered,
// newest-first list of work sessions for a single worker with start/stop
// operations, duration rules, and the day/month keys the views are built on.
package tracker

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"maintdesk/models"
)

var (
	ErrSessionActive   = errors.New("a work session is already active")
	ErrNoActiveSession = errors.New("no active work session")
	ErrNoLocation      = errors.New("location not available")
	ErrNotConfirmed    = errors.New("stop requires confirmation")
)

// Recorder owns the in-memory session list for one worker, newest first.
// Handlers share one recorder per worker, so access is mutex-guarded.
type Recorder struct {
	mu        sync.Mutex
	sessions  []models.WorkSession
	lastKnown *models.GeoPoint
}

// NewRecorder builds a recorder over a previously persisted session list.
// The list is taken as-is, newest first.
func NewRecorder(sessions []models.WorkSession) *Recorder {
	return &Recorder{sessions: sessions}
}

// Sessions returns a copy of the session list, newest first.
func (r *Recorder) Sessions() []models.WorkSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.WorkSession, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// Active returns the active session, if any.
func (r *Recorder) Active() (models.WorkSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, i := r.active(); i >= 0 {
		return s, true
	}
	return models.WorkSession{}, false
}

func (r *Recorder) active() (models.WorkSession, int) {
	for i, s := range r.sessions {
		if s.Active() {
			return s, i
		}
	}
	return models.WorkSession{}, -1
}

// SetLastKnown records the most recent location fix, used as a fallback when
// a start/stop request carries no fresh point.
func (r *Recorder) SetLastKnown(p models.GeoPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastKnown = &p
}

// resolveFix prefers the fresh point; otherwise the last known one. A nil
// result means the operation must fail rather than record a null point.
func (r *Recorder) resolveFix(fresh *models.GeoPoint) *models.GeoPoint {
	if fresh != nil {
		r.lastKnown = fresh
		return fresh
	}
	return r.lastKnown
}

// Start creates a new work session punched at now with the resolved location
// fix and prepends it to the list. It is rejected while a session is active
// or when no fix resolves.
func (r *Recorder) Start(now time.Time, fresh *models.GeoPoint) (models.WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, i := r.active(); i >= 0 {
		return models.WorkSession{}, ErrSessionActive
	}
	point := r.resolveFix(fresh)
	if point == nil {
		return models.WorkSession{}, ErrNoLocation
	}

	s := models.WorkSession{
		ID: strconv.FormatInt(now.UnixMilli(), 10),
		Started: models.Punch{
			At:    now.UTC().Format(time.RFC3339),
			Point: *point,
		},
	}
	r.sessions = append([]models.WorkSession{s}, r.sessions...)
	return s, nil
}

// Stop sets the ended punch on the active session. The caller must confirm
// explicitly before any state is mutated; without an active session or a
// resolvable fix the call fails the same way Start does.
func (r *Recorder) Stop(now time.Time, fresh *models.GeoPoint, confirmed bool) (models.WorkSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, i := r.active()
	if i < 0 {
		return models.WorkSession{}, ErrNoActiveSession
	}
	if !confirmed {
		return models.WorkSession{}, ErrNotConfirmed
	}
	point := r.resolveFix(fresh)
	if point == nil {
		return models.WorkSession{}, ErrNoLocation
	}

	ended := models.Punch{
		At:    now.UTC().Format(time.RFC3339),
		Point: *point,
	}
	r.sessions[i].Ended = &ended
	return r.sessions[i], nil
}

// Duration is ended − started for a closed session, clamped at zero. An
// active session displays as zero, not elapsed-so-far.
func Duration(s models.WorkSession) time.Duration {
	if s.Ended == nil {
		return 0
	}
	d := s.Ended.Time().Sub(s.Started.Time())
	if d < 0 {
		return 0
	}
	return d
}

// FormatDuration renders a duration as zero-padded HH:MM:SS in whole seconds.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// DayKey is the calendar-day key "YYYY-MM-DD" sliced from the start instant.
func DayKey(s models.WorkSession) string {
	if len(s.Started.At) < 10 {
		return ""
	}
	return s.Started.At[:10]
}

// MonthKey is the "YYYY-MM" prefix of the start instant.
func MonthKey(s models.WorkSession) string {
	if len(s.Started.At) < 7 {
		return ""
	}
	return s.Started.At[:7]
}

// MonthGroup is one month of closed sessions with the summed duration, used
// by the admin view.
type MonthGroup struct {
	Key      string               `json:"key"` // "YYYY-MM"
	Total    time.Duration        `json:"-"`
	TotalHMS string               `json:"total"`
	Sessions []models.WorkSession `json:"sessions"`
}

// GroupByMonth buckets sessions by month key, preserving the incoming
// (newest-first) order within and across groups.
func GroupByMonth(sessions []models.WorkSession) []MonthGroup {
	var groups []MonthGroup
	index := map[string]int{}
	for _, s := range sessions {
		key := MonthKey(s)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{Key: key})
		}
		groups[i].Sessions = append(groups[i].Sessions, s)
		groups[i].Total += Duration(s)
	}
	for i := range groups {
		groups[i].TotalHMS = FormatDuration(groups[i].Total)
	}
	return groups
}

// FilterSince keeps sessions whose start instant is not before since.
func FilterSince(sessions []models.WorkSession, since time.Time) []models.WorkSession {
	var out []models.WorkSession
	for _, s := range sessions {
		if !s.Started.Time().Before(since) {
			out = append(out, s)
		}
	}
	return out
}
