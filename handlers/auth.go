package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"maintdesk/auth"
	"maintdesk/db"
	"maintdesk/models"
)

type AuthHandler struct {
	db         *db.FirestoreDB
	jwtManager *auth.JWTManager
}

func NewAuthHandler(firestoreDB *db.FirestoreDB, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		db:         firestoreDB,
		jwtManager: jwtManager,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// Login handles user authentication by email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetUserByEmail(req.Email)
	if err != nil {
		log.Printf("Login failed for %s: user not found", req.Email)
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	passwordHash, err := h.db.GetPasswordHash(user.UserID)
	if err != nil {
		log.Printf("Login failed for %s: password hash not found", req.Email)
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := auth.CheckPassword(req.Password, passwordHash); err != nil {
		log.Printf("Login failed for %s: invalid password", req.Email)
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	// A user document without a role is recoverable: sign the user in with
	// the default role instead of failing.
	if user.Role == "" {
		log.Printf("⚠️  User %s has no role, defaulting to customer", req.Email)
		user.Role = models.RoleCustomer
	}

	user.LastLogin = time.Now()
	if err := h.db.UpdateUser(user); err != nil {
		log.Printf("Warning: failed to update last login for %s: %v", req.Email, err)
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", req.Email, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		log.Printf("Failed to generate refresh token for %s: %v", req.Email, err)
		writeError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ User logged in: %s (role: %s)", user.Email, user.Role)

	writeJSON(w, LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
	})
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account with the default customer role
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, "Email and password are required", http.StatusBadRequest)
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
		Role:      models.RoleCustomer,
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

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", req.Email, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		log.Printf("Failed to generate refresh token for %s: %v", req.Email, err)
		writeError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ User registered: %s", user.Email)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	Token string `json:"token"`
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		writeError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	user, err := h.db.GetUser(claims.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusUnauthorized)
		return
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", user.Email, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, RefreshTokenResponse{Token: token})
}
