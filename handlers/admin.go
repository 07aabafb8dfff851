package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"maintdesk/auth"
	"maintdesk/db"
	"maintdesk/middleware"
	"maintdesk/models"
	"maintdesk/storage"
	"maintdesk/tracker"
)

type AdminHandler struct {
	db    *db.FirestoreDB
	blobs *storage.BlobStore
}

func NewAdminHandler(firestoreDB *db.FirestoreDB, blobs *storage.BlobStore) *AdminHandler {
	return &AdminHandler{
		db:    firestoreDB,
		blobs: blobs,
	}
}

// --- User Management ---

type CreateUserRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type UpdateUserRequest struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
}

type DeleteUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUsers returns all users
func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.db.GetAllUsers()
	if err != nil {
		log.Printf("❌ Failed to get users: %v", err)
		writeError(w, "Failed to retrieve users", http.StatusInternalServerError)
		return
	}

	writeJSON(w, users)
}

// GetWorkers returns all users with the worker role
func (h *AdminHandler) GetWorkers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workers, err := h.db.GetWorkers()
	if err != nil {
		log.Printf("❌ Failed to get workers: %v", err)
		writeError(w, "Failed to retrieve workers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, workers)
}

// CreateUser creates a new user with an explicit role
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, "Email and password are required", http.StatusBadRequest)
		return
	}
	switch req.Role {
	case models.RoleAdmin, models.RoleWorker, models.RoleCustomer:
	default:
		writeError(w, "Role must be admin, worker, or customer", http.StatusBadRequest)
		return
	}

	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	existing, _ := h.db.GetUserByEmail(req.Email)
	if existing != nil {
		writeError(w, "Email already registered", http.StatusConflict)
		return
	}

	user := &models.User{
		UserID:    uuid.NewString(),
		Email:     req.Email,
		Role:      req.Role,
		CreatedAt: time.Now(),
		LastLogin: time.Now(),
	}

	if err := h.db.CreateUser(user); err != nil {
		log.Printf("❌ Failed to create user: %v", err)
		writeError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		writeError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := h.db.StorePasswordHash(user.UserID, passwordHash); err != nil {
		log.Printf("❌ Failed to store password: %v", err)
		writeError(w, "Failed to store password", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ User created by %s: %s (role: %s)", adminUser.Email, user.Email, user.Role)
	h.db.LogAudit(adminUser.UserID, "ADMIN_CREATE_USER",
		fmt.Sprintf("Admin %s created user %s with role %s", adminUser.Email, user.Email, user.Role))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

// UpdateUser changes a user's role
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		writeError(w, "User ID is required", http.StatusBadRequest)
		return
	}
	switch req.Role {
	case models.RoleAdmin, models.RoleWorker, models.RoleCustomer:
	default:
		writeError(w, "Role must be admin, worker, or customer", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUser(req.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}

	user.Role = req.Role
	if err := h.db.UpdateUser(user); err != nil {
		log.Printf("❌ Failed to update user: %v", err)
		writeError(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ User updated by %s: %s (role: %s)", adminUser.Email, user.Email, user.Role)
	h.db.LogAudit(adminUser.UserID, "ADMIN_UPDATE_USER",
		fmt.Sprintf("Admin %s set role of %s to %s", adminUser.Email, user.Email, user.Role))

	writeJSON(w, user)
}

// DeleteUser deletes a user
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req DeleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		writeError(w, "User ID is required", http.StatusBadRequest)
		return
	}

	// Prevent deleting yourself
	if req.UserID == adminUser.UserID {
		writeError(w, "Cannot delete your own account", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUser(req.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}

	if err := h.db.DeleteUser(req.UserID); err != nil {
		log.Printf("❌ Failed to delete user: %v", err)
		writeError(w, "Failed to delete user", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ User deleted by %s: %s", adminUser.Email, user.Email)
	h.db.LogAudit(adminUser.UserID, "ADMIN_DELETE_USER",
		fmt.Sprintf("Admin %s deleted user %s", adminUser.Email, user.Email))

	writeJSON(w, map[string]string{"message": "User deleted"})
}

// --- Service Requests ---

// ListRequests returns all service requests, newest first
func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requests, err := h.db.GetAllServiceRequests()
	if err != nil {
		log.Printf("❌ Failed to get service requests: %v", err)
		writeError(w, "Failed to retrieve service requests", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"requests": requests,
		"count":    len(requests),
	})
}

type AssignRequestRequest struct {
	RequestID string `json:"request_id"`
	WorkerID  string `json:"worker_id"`
}

// AssignRequest assigns a worker to a service request. Assignment does not
// change the request status.
func (h *AdminHandler) AssignRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req AssignRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RequestID == "" || req.WorkerID == "" {
		writeError(w, "Request ID and worker ID are required", http.StatusBadRequest)
		return
	}

	worker, err := h.db.GetUser(req.WorkerID)
	if err != nil {
		writeError(w, "Worker not found", http.StatusNotFound)
		return
	}
	if worker.Role != models.RoleWorker {
		writeError(w, "Assignee must have the worker role", http.StatusBadRequest)
		return
	}

	request, err := h.db.GetServiceRequest(req.RequestID)
	if err != nil {
		writeError(w, "Service request not found", http.StatusNotFound)
		return
	}

	if err := request.Assign(worker.UserID, worker.Email, time.Now()); err != nil {
		writeWorkflowError(w, err)
		return
	}

	if err := h.db.UpdateServiceRequest(request); err != nil {
		log.Printf("❌ Failed to update service request %s: %v", request.RequestID, err)
		writeError(w, "Failed to update service request", http.StatusInternalServerError)
		return
	}

	log.Printf("👷 Request %s assigned to %s by %s", request.RequestID, worker.Email, adminUser.Email)
	h.db.LogAudit(adminUser.UserID, "ADMIN_ASSIGN_REQUEST",
		fmt.Sprintf("Admin %s assigned request %s to %s", adminUser.Email, request.RequestID, worker.Email))

	writeJSON(w, request)
}

// StreamRequests pushes the service-request list as server-sent events on
// every Firestore snapshot until the client disconnects.
func (h *AdminHandler) StreamRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	streamRequestRows(w, r, func(ctx context.Context, fn func([]models.ServiceRequest)) *db.Subscription {
		return h.db.WatchServiceRequests(ctx, fn)
	})
}

// --- Time Tracking ---

// MonthSection is one month of a worker's remote sessions with the summed
// duration, newest first.
type MonthSection struct {
	Key      string                  `json:"key"` // "YYYY-MM"
	Total    string                  `json:"total"`
	Sessions []models.WorkSessionDoc `json:"sessions"`
}

func docDuration(s models.WorkSessionDoc) time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	d := s.EndedAt.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

func groupDocsByMonth(sessions []models.WorkSessionDoc) []MonthSection {
	var sections []MonthSection
	totals := map[string]time.Duration{}
	index := map[string]int{}
	for _, s := range sessions {
		key := s.StartedAt.UTC().Format("2006-01")
		i, ok := index[key]
		if !ok {
			i = len(sections)
			index[key] = i
			sections = append(sections, MonthSection{Key: key})
		}
		sections[i].Sessions = append(sections[i].Sessions, s)
		totals[key] += docDuration(s)
	}
	for i := range sections {
		sections[i].Total = tracker.FormatDuration(totals[sections[i].Key])
	}
	return sections
}

func parseRange(r *http.Request) *time.Time {
	var days int
	switch r.URL.Query().Get("range") {
	case "7d":
		days = 7
	case "30d", "":
		days = 30
	case "all":
		return nil
	default:
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)
	return &since
}

// GetWorkerSessions returns one worker's remote sessions grouped by month
// with per-month totals, over a 7d/30d/all range.
func (h *AdminHandler) GetWorkerSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	workerID := r.URL.Query().Get("worker")
	if workerID == "" {
		writeError(w, "Worker ID is required", http.StatusBadRequest)
		return
	}

	worker, err := h.db.GetUser(workerID)
	if err != nil {
		writeError(w, "Worker not found", http.StatusNotFound)
		return
	}

	sessions, err := h.db.GetWorkSessions(workerID, parseRange(r))
	if err != nil {
		log.Printf("❌ Failed to get work sessions: %v", err)
		writeError(w, "Failed to retrieve work sessions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"worker": worker.Email,
		"months": groupDocsByMonth(sessions),
		"count":  len(sessions),
	})
}

// ExportWorkerSessions exports one worker's sessions to CSV, uploads the
// file to Cloud Storage, and returns the download link.
func (h *AdminHandler) ExportWorkerSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	adminUser, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	workerID := r.URL.Query().Get("worker")
	if workerID == "" {
		writeError(w, "Worker ID is required", http.StatusBadRequest)
		return
	}

	worker, err := h.db.GetUser(workerID)
	if err != nil {
		writeError(w, "Worker not found", http.StatusNotFound)
		return
	}

	sessions, err := h.db.GetWorkSessions(workerID, parseRange(r))
	if err != nil {
		log.Printf("❌ Failed to get work sessions: %v", err)
		writeError(w, "Failed to retrieve work sessions", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"Session ID",
		"Day",
		"Status",
		"Started At",
		"Started Lat",
		"Started Lng",
		"Ended At",
		"Ended Lat",
		"Ended Lng",
		"Duration",
	}
	if err := writer.Write(header); err != nil {
		log.Printf("❌ Failed to write CSV header: %v", err)
		writeError(w, "Failed to generate CSV", http.StatusInternalServerError)
		return
	}

	for _, s := range sessions {
		endedAt, endedLat, endedLng := "", "", ""
		if s.EndedAt != nil {
			endedAt = s.EndedAt.Format(time.RFC3339)
		}
		if s.EndedPoint != nil {
			endedLat = fmt.Sprintf("%.5f", s.EndedPoint.Latitude)
			endedLng = fmt.Sprintf("%.5f", s.EndedPoint.Longitude)
		}
		row := []string{
			s.ID,
			s.DayKey,
			string(s.Status),
			s.StartedAt.Format(time.RFC3339),
			fmt.Sprintf("%.5f", s.StartedPoint.Latitude),
			fmt.Sprintf("%.5f", s.StartedPoint.Longitude),
			endedAt,
			endedLat,
			endedLng,
			tracker.FormatDuration(docDuration(s)),
		}
		if err := writer.Write(row); err != nil {
			log.Printf("❌ Failed to write CSV row: %v", err)
			writeError(w, "Failed to generate CSV", http.StatusInternalServerError)
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("❌ Failed to flush CSV: %v", err)
		writeError(w, "Failed to generate CSV", http.StatusInternalServerError)
		return
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := fmt.Sprintf("exports/sessions_%s_%s.csv", workerID, timestamp)
	downloadURL, err := h.blobs.Upload(r.Context(), path, "text/csv", &buf)
	if err != nil {
		log.Printf("❌ Failed to upload CSV: %v", err)
		writeError(w, "Failed to upload CSV", http.StatusInternalServerError)
		return
	}

	log.Printf("📊 CSV export by %s: %d sessions for %s", adminUser.Email, len(sessions), worker.Email)
	h.db.LogAudit(adminUser.UserID, "DATA_EXPORT",
		fmt.Sprintf("Admin %s exported %d sessions for %s", adminUser.Email, len(sessions), worker.Email))

	writeJSON(w, map[string]string{"download_url": downloadURL})
}

// --- Analytics ---

// AnalyticsResponse is the admin dashboard summary: counts by status and
// form answers, plus a per-day created series for the last two weeks.
type AnalyticsResponse struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	MasterKey  map[string]int `json:"master_key"`
	Pets       map[string]int `json:"pets"`
	WithImages int            `json:"with_images"`
	PerDay     []DayCount     `json:"per_day"`
}

type DayCount struct {
	Day   string `json:"day"` // "YYYY-MM-DD"
	Count int    `json:"count"`
}

// Analytics summarizes the service-request collection
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requests, err := h.db.GetAllServiceRequests()
	if err != nil {
		log.Printf("❌ Failed to get service requests: %v", err)
		writeError(w, "Failed to retrieve service requests", http.StatusInternalServerError)
		return
	}

	resp := AnalyticsResponse{
		Total:     len(requests),
		ByStatus:  map[string]int{},
		MasterKey: map[string]int{},
		Pets:      map[string]int{},
	}

	perDay := map[string]int{}
	for _, req := range requests {
		resp.ByStatus[string(req.Status)]++
		if req.MasterKeyUsage != "" {
			resp.MasterKey[string(req.MasterKeyUsage)]++
		}
		if req.Pets != "" {
			resp.Pets[string(req.Pets)]++
		}
		if len(req.ImageURLs) > 0 {
			resp.WithImages++
		}
		perDay[req.CreatedAt.UTC().Format("2006-01-02")]++
	}

	// Last 14 days, oldest first, zero-filled.
	today := time.Now().UTC()
	for i := 13; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		resp.PerDay = append(resp.PerDay, DayCount{Day: day, Count: perDay[day]})
	}

	writeJSON(w, resp)
}
