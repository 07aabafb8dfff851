package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"maintdesk/auth"
	"maintdesk/config"
	"maintdesk/db"
	"maintdesk/models"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	cfg.Validate()

	// Initialize Firestore
	ctx := context.Background()
	firestoreDB, err := db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedUsers(firestoreDB); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Println("✅ Seeding complete")
}

func seedUsers(firestoreDB *db.FirestoreDB) error {
	seeds := []struct {
		email    string
		role     models.Role
		password string
	}{
		{"admin@maintdesk.test", models.RoleAdmin, "admin-password1"},
		{"worker@maintdesk.test", models.RoleWorker, "worker-password1"},
		{"customer@maintdesk.test", models.RoleCustomer, "customer-password1"},
	}

	for _, seed := range seeds {
		if existing, _ := firestoreDB.GetUserByEmail(seed.email); existing != nil {
			log.Printf("User %s already exists, skipping", seed.email)
			continue
		}

		user := &models.User{
			UserID:    uuid.NewString(),
			Email:     seed.email,
			Role:      seed.role,
			CreatedAt: time.Now(),
			LastLogin: time.Now(),
		}
		if err := firestoreDB.CreateUser(user); err != nil {
			return err
		}

		hash, err := auth.HashPassword(seed.password)
		if err != nil {
			return err
		}
		if err := firestoreDB.StorePasswordHash(user.UserID, hash); err != nil {
			return err
		}

		log.Printf("Created user %s (role: %s)", seed.email, seed.role)
	}

	return nil
}
