package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"maintdesk/db"
	"maintdesk/middleware"
	"maintdesk/models"
)

type RequestsHandler struct {
	db *db.FirestoreDB
}

func NewRequestsHandler(firestoreDB *db.FirestoreDB) *RequestsHandler {
	return &RequestsHandler{
		db: firestoreDB,
	}
}

type CreateRequestRequest struct {
	IssueDescription string       `json:"issue_description"`
	Address          string       `json:"address"`
	WhenAppeared     string       `json:"when_appeared,omitempty"`
	MasterKeyUsage   models.YesNo `json:"master_key_usage,omitempty"`
	Pets             models.YesNo `json:"pets,omitempty"`
	OtherInfo        string       `json:"other_info,omitempty"`
	ImageURLs        []string     `json:"image_urls,omitempty"`
}

// Create files a new service request for the signed-in customer
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.IssueDescription == "" || req.Address == "" {
		writeError(w, "Issue description and address are required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	request := &models.ServiceRequest{
		RequestID:        uuid.NewString(),
		UserID:           user.UserID,
		UserEmail:        user.Email,
		IssueDescription: req.IssueDescription,
		Address:          req.Address,
		WhenAppeared:     req.WhenAppeared,
		MasterKeyUsage:   req.MasterKeyUsage,
		Pets:             req.Pets,
		OtherInfo:        req.OtherInfo,
		ImageURLs:        req.ImageURLs,
		Status:           models.StatusNew,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if request.ImageURLs == nil {
		request.ImageURLs = []string{}
	}

	if err := h.db.CreateServiceRequest(request); err != nil {
		log.Printf("❌ Failed to create service request: %v", err)
		writeError(w, "Failed to create service request", http.StatusInternalServerError)
		return
	}

	log.Printf("📋 Service request created by %s: %s", user.Email, request.RequestID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(request)
}

// ListMine returns the signed-in customer's own requests, newest first
func (h *RequestsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	requests, err := h.db.GetServiceRequestsByRequester(user.UserID)
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

// ListAssigned returns the requests assigned to the signed-in worker. The
// done query parameter toggles between open and completed work.
func (h *RequestsHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	requests, err := h.db.GetServiceRequestsByAssignee(user.UserID)
	if err != nil {
		log.Printf("❌ Failed to get assigned requests: %v", err)
		writeError(w, "Failed to retrieve service requests", http.StatusInternalServerError)
		return
	}

	showDone := r.URL.Query().Get("done") == "true"
	filtered := []models.ServiceRequest{}
	for _, req := range requests {
		if (req.Status == models.StatusDone) == showDone {
			filtered = append(filtered, req)
		}
	}

	writeJSON(w, map[string]interface{}{
		"requests": filtered,
		"count":    len(filtered),
	})
}

// StreamAssigned pushes the worker's assigned requests as server-sent events
// on every Firestore snapshot until the client disconnects.
func (h *RequestsHandler) StreamAssigned(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	streamRequestRows(w, r, func(ctx context.Context, fn func([]models.ServiceRequest)) *db.Subscription {
		return h.db.WatchAssignedRequests(ctx, user.UserID, fn)
	})
}

type StartRequestRequest struct {
	RequestID string `json:"request_id"`
}

// Start moves an assigned request from new to in_progress
func (h *RequestsHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req StartRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RequestID == "" {
		writeError(w, "Request ID is required", http.StatusBadRequest)
		return
	}

	request, err := h.db.GetServiceRequest(req.RequestID)
	if err != nil {
		writeError(w, "Service request not found", http.StatusNotFound)
		return
	}

	if err := request.Start(user.UserID, time.Now()); err != nil {
		writeWorkflowError(w, err)
		return
	}

	if err := h.db.UpdateServiceRequest(request); err != nil {
		log.Printf("❌ Failed to update service request %s: %v", request.RequestID, err)
		writeError(w, "Failed to update service request", http.StatusInternalServerError)
		return
	}

	log.Printf("🔧 Work started by %s on request %s", user.Email, request.RequestID)
	writeJSON(w, request)
}

type CompleteRequestRequest struct {
	RequestID string `json:"request_id"`
	Comment   string `json:"comment,omitempty"`
}

// Complete moves an assigned request from in_progress to done
func (h *RequestsHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req CompleteRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RequestID == "" {
		writeError(w, "Request ID is required", http.StatusBadRequest)
		return
	}

	request, err := h.db.GetServiceRequest(req.RequestID)
	if err != nil {
		writeError(w, "Service request not found", http.StatusNotFound)
		return
	}

	if err := request.Complete(user.UserID, req.Comment, time.Now()); err != nil {
		writeWorkflowError(w, err)
		return
	}

	if err := h.db.UpdateServiceRequest(request); err != nil {
		log.Printf("❌ Failed to update service request %s: %v", request.RequestID, err)
		writeError(w, "Failed to update service request", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Request %s completed by %s", request.RequestID, user.Email)
	writeJSON(w, request)
}

func writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotAssignee):
		writeError(w, "Request is assigned to another worker", http.StatusForbidden)
	case errors.Is(err, models.ErrNotNew), errors.Is(err, models.ErrNotInProgress), errors.Is(err, models.ErrAlreadyDone):
		writeError(w, err.Error(), http.StatusConflict)
	default:
		writeError(w, "Failed to update service request", http.StatusInternalServerError)
	}
}
