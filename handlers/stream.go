package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"maintdesk/db"
	"maintdesk/models"
)

// pushLatest keeps the one-slot channel holding the freshest snapshot: a
// buffered stale entry is replaced, never the new one dropped. Safe only with
// a single producer.
func pushLatest(ch chan []models.ServiceRequest, rows []models.ServiceRequest) {
	select {
	case <-ch:
	default:
	}
	ch <- rows
}

// streamRequestRows writes every snapshot from the watch as a server-sent
// event until the client disconnects.
func streamRequestRows(w http.ResponseWriter, r *http.Request, watch func(context.Context, func([]models.ServiceRequest)) *db.Subscription) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates := make(chan []models.ServiceRequest, 1)
	sub := watch(r.Context(), func(rows []models.ServiceRequest) {
		pushLatest(updates, rows)
	})
	defer sub.Close()

	for {
		select {
		case <-r.Context().Done():
			return
		case rows := <-updates:
			data, err := json.Marshal(rows)
			if err != nil {
				log.Printf("Warning: failed to encode snapshot: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
