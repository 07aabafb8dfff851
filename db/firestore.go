package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"maintdesk/models"
	"maintdesk/tracker"
)

// FirestoreDB wraps the Firestore client
type FirestoreDB struct {
	client *firestore.Client
	ctx    context.Context
}

// NewFirestoreDB initializes a new Firestore client
func NewFirestoreDB(ctx context.Context, projectID, credentialsPath string) (*FirestoreDB, error) {
	opt := option.WithCredentialsFile(credentialsPath)

	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Printf("✅ Connected to Firestore project: %s", projectID)

	return &FirestoreDB{
		client: client,
		ctx:    ctx,
	}, nil
}

// Close closes the Firestore client
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

// --- User Operations ---

// CreateUser creates a new user document
func (db *FirestoreDB) CreateUser(user *models.User) error {
	_, err := db.client.Collection("users").Doc(user.UserID).Set(db.ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (db *FirestoreDB) GetUser(userID string) (*models.User, error) {
	doc, err := db.client.Collection("users").Doc(userID).Get(db.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email address
func (db *FirestoreDB) GetUserByEmail(email string) (*models.User, error) {
	iter := db.client.Collection("users").
		Where("email", "==", email).
		Limit(1).
		Documents(db.ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user not found: %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user: %w", err)
	}

	return &user, nil
}

// GetAllUsers retrieves all users
func (db *FirestoreDB) GetAllUsers() ([]models.User, error) {
	iter := db.client.Collection("users").Documents(db.ctx)
	defer iter.Stop()

	var users []models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users: %w", err)
		}

		var user models.User
		if err := doc.DataTo(&user); err != nil {
			log.Printf("Warning: failed to parse user %s: %v", doc.Ref.ID, err)
			continue
		}
		users = append(users, user)
	}

	return users, nil
}

// GetWorkers retrieves all users with the worker role
func (db *FirestoreDB) GetWorkers() ([]models.User, error) {
	iter := db.client.Collection("users").
		Where("role", "==", string(models.RoleWorker)).
		Documents(db.ctx)
	defer iter.Stop()

	var workers []models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate workers: %w", err)
		}

		var user models.User
		if err := doc.DataTo(&user); err != nil {
			log.Printf("Warning: failed to parse user %s: %v", doc.Ref.ID, err)
			continue
		}
		workers = append(workers, user)
	}

	return workers, nil
}

// UpdateUser updates an existing user
func (db *FirestoreDB) UpdateUser(user *models.User) error {
	_, err := db.client.Collection("users").Doc(user.UserID).Set(db.ctx, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteUser deletes a user
func (db *FirestoreDB) DeleteUser(userID string) error {
	_, err := db.client.Collection("users").Doc(userID).Delete(db.ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// --- Password Operations ---

// StorePasswordHash stores a password hash for a user
func (db *FirestoreDB) StorePasswordHash(userID, passwordHash string) error {
	_, err := db.client.Collection("passwords").Doc(userID).Set(db.ctx, map[string]interface{}{
		"user_id":       userID,
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	return nil
}

// GetPasswordHash retrieves a password hash for a user
func (db *FirestoreDB) GetPasswordHash(userID string) (string, error) {
	doc, err := db.client.Collection("passwords").Doc(userID).Get(db.ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}

	data := doc.Data()
	if hash, ok := data["password_hash"].(string); ok {
		return hash, nil
	}

	return "", fmt.Errorf("password hash not found for user: %s", userID)
}

// --- Service Request Operations ---

// CreateServiceRequest creates a new service request document
func (db *FirestoreDB) CreateServiceRequest(req *models.ServiceRequest) error {
	_, err := db.client.Collection("serviceRequests").Doc(req.RequestID).Set(db.ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}
	return nil
}

// GetServiceRequest retrieves a service request by ID
func (db *FirestoreDB) GetServiceRequest(requestID string) (*models.ServiceRequest, error) {
	doc, err := db.client.Collection("serviceRequests").Doc(requestID).Get(db.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}

	var req models.ServiceRequest
	if err := doc.DataTo(&req); err != nil {
		return nil, fmt.Errorf("failed to parse service request: %w", err)
	}

	return &req, nil
}

// GetAllServiceRequests retrieves all service requests, newest first
func (db *FirestoreDB) GetAllServiceRequests() ([]models.ServiceRequest, error) {
	iter := db.client.Collection("serviceRequests").
		OrderBy("created_at", firestore.Desc).
		Documents(db.ctx)
	return collectRequests(iter)
}

// GetServiceRequestsByRequester retrieves a customer's own requests, newest first
func (db *FirestoreDB) GetServiceRequestsByRequester(userID string) ([]models.ServiceRequest, error) {
	iter := db.client.Collection("serviceRequests").
		Where("user_id", "==", userID).
		OrderBy("created_at", firestore.Desc).
		Documents(db.ctx)
	return collectRequests(iter)
}

// GetServiceRequestsByAssignee retrieves the requests assigned to a worker, newest first
func (db *FirestoreDB) GetServiceRequestsByAssignee(workerID string) ([]models.ServiceRequest, error) {
	iter := db.client.Collection("serviceRequests").
		Where("assigned_to", "==", workerID).
		OrderBy("created_at", firestore.Desc).
		Documents(db.ctx)
	return collectRequests(iter)
}

// UpdateServiceRequest overwrites an existing service request document
func (db *FirestoreDB) UpdateServiceRequest(req *models.ServiceRequest) error {
	_, err := db.client.Collection("serviceRequests").Doc(req.RequestID).Set(db.ctx, req)
	if err != nil {
		return fmt.Errorf("failed to update service request: %w", err)
	}
	return nil
}

func collectRequests(iter *firestore.DocumentIterator) ([]models.ServiceRequest, error) {
	defer iter.Stop()

	var requests []models.ServiceRequest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate service requests: %w", err)
		}

		var req models.ServiceRequest
		if err := doc.DataTo(&req); err != nil {
			log.Printf("Warning: failed to parse service request %s: %v", doc.Ref.ID, err)
			continue
		}
		requests = append(requests, req)
	}

	return requests, nil
}

// --- Work Session Operations ---

func (db *FirestoreDB) sessionDoc(uid, sessionID string) *firestore.DocumentRef {
	return db.client.Collection("users").Doc(uid).Collection("workSessions").Doc(sessionID)
}

// sessionFields builds the remote document for one session: the day key is
// derived from the start instant, status mirrors the ended punch, and the
// update timestamp is always refreshed. Only a create writes the creation
// timestamp; updates merge the same mutable fields, so re-upserting an
// unchanged session leaves the record equal.
func sessionFields(uid, email string, s models.WorkSession, create bool) map[string]interface{} {
	fields := map[string]interface{}{
		"id":             s.ID,
		"uid":            uid,
		"email":          email,
		"day_key":        tracker.DayKey(s),
		"started_at":     s.Started.Time(),
		"started_at_iso": s.Started.At,
		"started_point":  s.Started.Point,
		"updated_at":     firestore.ServerTimestamp,
	}
	if s.Ended != nil {
		fields["ended_at"] = s.Ended.Time()
		fields["ended_at_iso"] = s.Ended.At
		fields["ended_point"] = s.Ended.Point
		fields["status"] = string(models.SessionClosed)
	} else {
		fields["status"] = string(models.SessionActive)
	}
	if create {
		fields["created_at"] = firestore.ServerTimestamp
	}
	return fields
}

// UpsertWorkSession mirrors one local session into the worker's remote
// collection, tagged with the calendar-day key of the start instant. A new
// record gets a creation timestamp; an existing one has only the mutable
// fields merged. Re-syncing an unchanged session leaves the record's mutable
// fields equal to the input and creates no duplicate.
func (db *FirestoreDB) UpsertWorkSession(uid, email string, s models.WorkSession) error {
	ref := db.sessionDoc(uid, s.ID)

	_, err := ref.Get(db.ctx)
	if status.Code(err) == codes.NotFound {
		if _, err := ref.Set(db.ctx, sessionFields(uid, email, s, true)); err != nil {
			return fmt.Errorf("failed to create work session %s: %w", s.ID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check work session %s: %w", s.ID, err)
	}

	if _, err := ref.Set(db.ctx, sessionFields(uid, email, s, false), firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update work session %s: %w", s.ID, err)
	}
	return nil
}

// GetWorkSessions retrieves a worker's remote sessions, newest first,
// optionally limited to those started after since.
func (db *FirestoreDB) GetWorkSessions(uid string, since *time.Time) ([]models.WorkSessionDoc, error) {
	query := db.client.Collection("users").Doc(uid).Collection("workSessions").
		OrderBy("started_at", firestore.Desc)
	if since != nil {
		query = query.Where("started_at", ">", *since)
	}

	iter := query.Documents(db.ctx)
	defer iter.Stop()

	var sessions []models.WorkSessionDoc
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate work sessions: %w", err)
		}

		var s models.WorkSessionDoc
		if err := doc.DataTo(&s); err != nil {
			log.Printf("Warning: failed to parse work session %s: %v", doc.Ref.ID, err)
			continue
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}

// --- Audit Operations ---

// LogAudit records an audit event for an admin mutation. Failures are logged
// and swallowed so auditing never blocks the action itself.
func (db *FirestoreDB) LogAudit(userID, action, details string) {
	ref := db.client.Collection("auditLogs").NewDoc()
	entry := models.AuditLog{
		LogID:     ref.ID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UserID:    userID,
		Action:    action,
		Details:   details,
	}
	if _, err := ref.Set(db.ctx, entry); err != nil {
		log.Printf("Warning: failed to write audit log: %v", err)
	}
}
