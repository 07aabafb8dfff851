// main.go
// maintdesk API - backend for the building maintenance app
// Implements JWT authentication, Firestore database, Cloud Storage uploads,
// and the worker punch clock with its local store and remote sync.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"maintdesk/auth"
	"maintdesk/config"
	"maintdesk/db"
	"maintdesk/handlers"
	"maintdesk/middleware"
	"maintdesk/models"
	"maintdesk/storage"
	"maintdesk/store"
)

// Global instances
var (
	cfg             *config.Config
	firestoreDB     *db.FirestoreDB
	blobStore       *storage.BlobStore
	sessionStore    *store.Store
	jwtManager      *auth.JWTManager
	authHandler     *handlers.AuthHandler
	requestsHandler *handlers.RequestsHandler
	sessionsHandler *handlers.SessionsHandler
	adminHandler    *handlers.AdminHandler
	uploadHandler   *handlers.UploadHandler
	rateLimiter     *middleware.RateLimiter
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	// Load configuration
	cfg = config.Load()
	cfg.Validate()

	log.Printf("🚀 Starting maintdesk API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	// Initialize Firestore
	ctx := context.Background()
	var err error
	firestoreDB, err = db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	// Initialize Cloud Storage
	blobStore, err = storage.NewBlobStore(ctx, cfg.Storage.Bucket, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Cloud Storage: %v", err)
	}
	defer blobStore.Close()

	// Initialize the local session store
	sessionStore, err = store.Open(cfg.Local.Dir)
	if err != nil {
		log.Fatalf("❌ Failed to open session store: %v", err)
	}
	defer sessionStore.Close()

	// Initialize JWT Manager
	jwtManager = auth.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.Expiration,
		cfg.JWT.RefreshTokenExpiration,
	)
	log.Printf("🔐 JWT Manager initialized (expiration: %v)", cfg.JWT.Expiration)

	// Initialize handlers
	authHandler = handlers.NewAuthHandler(firestoreDB, jwtManager)
	requestsHandler = handlers.NewRequestsHandler(firestoreDB)
	sessionsHandler = handlers.NewSessionsHandler(firestoreDB, sessionStore)
	adminHandler = handlers.NewAdminHandler(firestoreDB, blobStore)
	uploadHandler = handlers.NewUploadHandler(blobStore)
	log.Printf("✅ Handlers initialized")

	// Initialize rate limiter
	rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.CleanupOldLimiters()
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Set up router
	mux := http.NewServeMux()

	// Public routes (no authentication required)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/login", authHandler.Login)
	mux.HandleFunc("/api/register", authHandler.Register)
	mux.HandleFunc("/api/refresh", authHandler.RefreshToken)

	// Protected routes (authentication required)
	authMiddleware := middleware.AuthMiddleware(jwtManager, firestoreDB)

	// Uploads (any signed-in user)
	mux.Handle("/api/uploads/image", authMiddleware(http.HandlerFunc(uploadHandler.UploadImage)))

	// Customer endpoints
	customerOnly := middleware.RequireRole(models.RoleCustomer)
	mux.Handle("/api/requests", authMiddleware(customerOnly(http.HandlerFunc(requestsHandler.Create))))
	mux.Handle("/api/requests/mine", authMiddleware(customerOnly(http.HandlerFunc(requestsHandler.ListMine))))

	// Worker endpoints
	workerOnly := middleware.RequireRole(models.RoleWorker)
	mux.Handle("/api/worker/requests", authMiddleware(workerOnly(http.HandlerFunc(requestsHandler.ListAssigned))))
	mux.Handle("/api/worker/requests/start", authMiddleware(workerOnly(http.HandlerFunc(requestsHandler.Start))))
	mux.Handle("/api/worker/requests/complete", authMiddleware(workerOnly(http.HandlerFunc(requestsHandler.Complete))))
	mux.Handle("/api/worker/requests/stream", authMiddleware(workerOnly(http.HandlerFunc(requestsHandler.StreamAssigned))))
	mux.Handle("/api/clock/in", authMiddleware(workerOnly(http.HandlerFunc(sessionsHandler.ClockIn))))
	mux.Handle("/api/clock/out", authMiddleware(workerOnly(http.HandlerFunc(sessionsHandler.ClockOut))))
	mux.Handle("/api/clock/sessions", authMiddleware(workerOnly(http.HandlerFunc(sessionsHandler.List))))
	mux.Handle("/api/clock/resync", authMiddleware(workerOnly(http.HandlerFunc(sessionsHandler.Resync))))

	// Admin endpoints (admin only)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	mux.Handle("/api/admin/users", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.GetUsers))))
	mux.Handle("/api/admin/users/create", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.CreateUser))))
	mux.Handle("/api/admin/users/update", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.UpdateUser))))
	mux.Handle("/api/admin/users/delete", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.DeleteUser))))
	mux.Handle("/api/admin/workers", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.GetWorkers))))
	mux.Handle("/api/admin/requests", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.ListRequests))))
	mux.Handle("/api/admin/requests/assign", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.AssignRequest))))
	mux.Handle("/api/admin/requests/stream", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.StreamRequests))))
	mux.Handle("/api/admin/sessions", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.GetWorkerSessions))))
	mux.Handle("/api/admin/sessions/export", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.ExportWorkerSessions))))
	mux.Handle("/api/admin/analytics", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.Analytics))))

	// Apply global middleware
	handler := middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(mux)
	handler = rateLimiter.Middleware()(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}
