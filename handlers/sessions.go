package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"maintdesk/db"
	"maintdesk/middleware"
	"maintdesk/models"
	"maintdesk/store"
	"maintdesk/tracker"
)

// SessionsHandler exposes the worker punch clock. Each worker gets one
// recorder, loaded from the local store on first touch. Every mutation is
// saved locally first and then mirrored to Firestore best-effort; a failed
// sync is logged and swallowed, to be repaired by the next resync.
type SessionsHandler struct {
	db    *db.FirestoreDB
	store *store.Store

	mu        sync.Mutex
	recorders map[string]*tracker.Recorder
}

func NewSessionsHandler(firestoreDB *db.FirestoreDB, localStore *store.Store) *SessionsHandler {
	return &SessionsHandler{
		db:        firestoreDB,
		store:     localStore,
		recorders: make(map[string]*tracker.Recorder),
	}
}

func (h *SessionsHandler) recorderFor(uid string) *tracker.Recorder {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rec, ok := h.recorders[uid]; ok {
		return rec
	}

	sessions, err := h.store.Load(uid)
	if err != nil {
		log.Printf("Warning: failed to load sessions for %s: %v", uid, err)
		sessions = []models.WorkSession{}
	}
	rec := tracker.NewRecorder(sessions)
	h.recorders[uid] = rec
	return rec
}

// persist saves the session list locally, then mirrors the touched session
// remotely. The local save happens strictly first; the two are not
// transactional, and a failed sync only warns.
func (h *SessionsHandler) persist(user *models.User, rec *tracker.Recorder, touched models.WorkSession) error {
	if err := h.store.Save(user.UserID, rec.Sessions()); err != nil {
		return err
	}
	if err := h.db.UpsertWorkSession(user.UserID, user.Email, touched); err != nil {
		log.Printf("Warning: failed to sync session %s for %s: %v", touched.ID, user.Email, err)
	}
	return nil
}

type ClockRequest struct {
	Point   *models.GeoPoint `json:"point,omitempty"`
	Confirm bool             `json:"confirm,omitempty"`
}

// SessionView is a session decorated for display.
type SessionView struct {
	models.WorkSession
	DayKey   string `json:"day_key"`
	Duration string `json:"duration"`
}

func viewOf(s models.WorkSession) SessionView {
	return SessionView{
		WorkSession: s,
		DayKey:      tracker.DayKey(s),
		Duration:    tracker.FormatDuration(tracker.Duration(s)),
	}
}

// ClockIn starts a new work session at the current instant
func (h *SessionsHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec := h.recorderFor(user.UserID)
	session, err := rec.Start(time.Now(), req.Point)
	if err != nil {
		writeClockError(w, err)
		return
	}

	if err := h.persist(user, rec, session); err != nil {
		log.Printf("❌ Failed to save sessions for %s: %v", user.Email, err)
		writeError(w, "Failed to save work session", http.StatusInternalServerError)
		return
	}

	log.Printf("⏱️  Clock in: %s session %s", user.Email, session.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(viewOf(session))
}

// ClockOut ends the active work session. The confirm flag is the explicit
// confirmation step; without it nothing is mutated.
func (h *SessionsHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec := h.recorderFor(user.UserID)
	session, err := rec.Stop(time.Now(), req.Point, req.Confirm)
	if err != nil {
		writeClockError(w, err)
		return
	}

	if err := h.persist(user, rec, session); err != nil {
		log.Printf("❌ Failed to save sessions for %s: %v", user.Email, err)
		writeError(w, "Failed to save work session", http.StatusInternalServerError)
		return
	}

	log.Printf("⏱️  Clock out: %s session %s (%s)", user.Email, session.ID, tracker.FormatDuration(tracker.Duration(session)))
	writeJSON(w, viewOf(session))
}

// List returns the worker's own sessions as a flat list, newest first, with
// the active session singled out.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	rec := h.recorderFor(user.UserID)
	sessions := rec.Sessions()

	views := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, viewOf(s))
	}

	response := map[string]interface{}{
		"sessions": views,
		"count":    len(views),
	}
	if active, ok := rec.Active(); ok {
		response["active"] = viewOf(active)
	}

	writeJSON(w, response)
}

// Resync re-pushes the whole local session list to Firestore, best-effort.
// Called on screen mount; local state wins over whatever is remote.
func (h *SessionsHandler) Resync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	rec := h.recorderFor(user.UserID)
	sessions := rec.Sessions()

	synced := 0
	failed := 0
	for _, s := range sessions {
		if err := h.db.UpsertWorkSession(user.UserID, user.Email, s); err != nil {
			log.Printf("Warning: failed to sync session %s for %s: %v", s.ID, user.Email, err)
			failed++
			continue
		}
		synced++
	}

	log.Printf("🔄 Session resync for %s: %d synced, %d failed", user.Email, synced, failed)

	writeJSON(w, map[string]interface{}{
		"synced": synced,
		"failed": failed,
	})
}

func writeClockError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrSessionActive), errors.Is(err, tracker.ErrNoActiveSession):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, tracker.ErrNoLocation), errors.Is(err, tracker.ErrNotConfirmed):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		writeError(w, "Failed to update work session", http.StatusInternalServerError)
	}
}
