package db

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"

	"maintdesk/models"
)

// Subscription is an explicit handle for a live Firestore query listener.
// The callback fires once per snapshot until Close is called; Close cancels
// the listener and waits for the delivery goroutine to finish, so no callback
// runs after Close returns.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Close tears the subscription down.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// WatchServiceRequests subscribes to the full service-request collection,
// newest first, invoking fn with the decoded rows on every snapshot.
func (db *FirestoreDB) WatchServiceRequests(ctx context.Context, fn func([]models.ServiceRequest)) *Subscription {
	query := db.client.Collection("serviceRequests").OrderBy("created_at", firestore.Desc)
	return db.watch(ctx, query, fn)
}

// WatchAssignedRequests subscribes to the requests assigned to one worker.
func (db *FirestoreDB) WatchAssignedRequests(ctx context.Context, workerID string, fn func([]models.ServiceRequest)) *Subscription {
	query := db.client.Collection("serviceRequests").
		Where("assigned_to", "==", workerID).
		OrderBy("created_at", firestore.Desc)
	return db.watch(ctx, query, fn)
}

func (db *FirestoreDB) watch(ctx context.Context, query firestore.Query, fn func([]models.ServiceRequest)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	snapshots := query.Snapshots(ctx)

	go func() {
		defer close(sub.done)
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("Warning: service request watch ended: %v", err)
				}
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				log.Printf("Warning: failed to read watch snapshot: %v", err)
				continue
			}
			var rows []models.ServiceRequest
			for _, doc := range docs {
				var req models.ServiceRequest
				if err := doc.DataTo(&req); err != nil {
					log.Printf("Warning: failed to parse service request %s: %v", doc.Ref.ID, err)
					continue
				}
				rows = append(rows, req)
			}
			fn(rows)
		}
	}()

	return sub
}
