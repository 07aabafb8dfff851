// models.go
// Defines the core data structures for the maintdesk backend: users and roles,
// service requests with their workflow, and worker punch-clock sessions.

package models

import (
	"errors"
	"time"
)

// Role defines the access level of a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleWorker   Role = "worker"
	RoleCustomer Role = "customer"
)

// User represents an authenticated user in the system.
// This struct is essential for Role-Based Access Control (RBAC).
type User struct {
	UserID    string    `firestore:"user_id" json:"user_id"`
	Email     string    `firestore:"email" json:"email"`
	Role      Role      `firestore:"role" json:"role"` // admin, worker, customer
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	LastLogin time.Time `firestore:"last_login" json:"last_login"`
}

// GeoPoint is a bare latitude/longitude pair in floating point degrees.
// No altitude, accuracy, or heading.
type GeoPoint struct {
	Latitude  float64 `firestore:"latitude" json:"latitude"`
	Longitude float64 `firestore:"longitude" json:"longitude"`
}

// Punch is a single timestamped geographic event (clock-in or clock-out).
// The instant is kept as an RFC3339 string, exactly as recorded. Immutable
// once created.
type Punch struct {
	At    string   `firestore:"at" json:"at"`
	Point GeoPoint `firestore:"point" json:"point"`
}

// Time parses the punch instant. A malformed instant yields the zero time.
func (p Punch) Time() time.Time {
	t, err := time.Parse(time.RFC3339, p.At)
	if err != nil {
		return time.Time{}
	}
	return t
}

// WorkSession is one clock-in/clock-out interval for a worker. A session is
// active iff Ended is nil. The ID is an opaque string derived from the
// creation instant.
type WorkSession struct {
	ID      string `firestore:"id" json:"id"`
	Started Punch  `firestore:"started" json:"started"`
	Ended   *Punch `firestore:"ended,omitempty" json:"ended,omitempty"`
}

// Active reports whether the session has no ended punch yet.
func (s WorkSession) Active() bool {
	return s.Ended == nil
}

// SessionStatus is the closed/active flag mirrored into the remote record.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// WorkSessionDoc is the remote mirror of a WorkSession, stored under
// users/{uid}/workSessions/{id} and tagged with a calendar-day key derived
// from the start instant.
type WorkSessionDoc struct {
	ID           string        `firestore:"id" json:"id"`
	UID          string        `firestore:"uid" json:"uid"`
	Email        string        `firestore:"email" json:"email"`
	DayKey       string        `firestore:"day_key" json:"day_key"` // "YYYY-MM-DD"
	Status       SessionStatus `firestore:"status" json:"status"`
	StartedAt    time.Time     `firestore:"started_at" json:"started_at"`
	StartedAtISO string        `firestore:"started_at_iso" json:"started_at_iso"`
	StartedPoint GeoPoint      `firestore:"started_point" json:"started_point"`
	EndedAt      *time.Time    `firestore:"ended_at,omitempty" json:"ended_at,omitempty"`
	EndedAtISO   string        `firestore:"ended_at_iso,omitempty" json:"ended_at_iso,omitempty"`
	EndedPoint   *GeoPoint     `firestore:"ended_point,omitempty" json:"ended_point,omitempty"`
	CreatedAt    time.Time     `firestore:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `firestore:"updated_at" json:"updated_at"`
}

// RequestStatus defines the service-request lifecycle states.
type RequestStatus string

const (
	StatusNew        RequestStatus = "new"
	StatusInProgress RequestStatus = "in_progress"
	StatusDone       RequestStatus = "done"
)

// YesNo is a tri-state form answer: "yes", "no", or unset.
type YesNo string

const (
	Yes YesNo = "yes"
	No  YesNo = "no"
)

// Workflow errors returned by the ServiceRequest transition methods.
var (
	ErrNotNew        = errors.New("request is not in the new state")
	ErrNotInProgress = errors.New("request is not in progress")
	ErrAlreadyDone   = errors.New("request is already done")
	ErrNotAssignee   = errors.New("request is assigned to another worker")
)

// ServiceRequest is a customer-submitted maintenance issue report tracked
// through a new/in_progress/done lifecycle. Created by a customer, mutated by
// at most one assigned worker and any admin.
type ServiceRequest struct {
	RequestID        string        `firestore:"request_id" json:"request_id"`
	UserID           string        `firestore:"user_id" json:"user_id"`
	UserEmail        string        `firestore:"user_email" json:"user_email"`
	IssueDescription string        `firestore:"issue_description" json:"issue_description"`
	Address          string        `firestore:"address" json:"address"`
	WhenAppeared     string        `firestore:"when_appeared,omitempty" json:"when_appeared,omitempty"`
	MasterKeyUsage   YesNo         `firestore:"master_key_usage,omitempty" json:"master_key_usage,omitempty"`
	Pets             YesNo         `firestore:"pets,omitempty" json:"pets,omitempty"`
	OtherInfo        string        `firestore:"other_info,omitempty" json:"other_info,omitempty"`
	ImageURLs        []string      `firestore:"image_urls" json:"image_urls"`
	Status           RequestStatus `firestore:"status" json:"status"`
	AssignedTo       string        `firestore:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	AssignedToEmail  string        `firestore:"assigned_to_email,omitempty" json:"assigned_to_email,omitempty"`
	AssignedAt       *time.Time    `firestore:"assigned_at,omitempty" json:"assigned_at,omitempty"`
	StartedAt        *time.Time    `firestore:"started_at,omitempty" json:"started_at,omitempty"`
	FinishedAt       *time.Time    `firestore:"finished_at,omitempty" json:"finished_at,omitempty"`
	WorkerComment    string        `firestore:"worker_comment,omitempty" json:"worker_comment,omitempty"`
	CreatedAt        time.Time     `firestore:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `firestore:"updated_at" json:"updated_at"`
}

// Assign sets the assigned worker. Allowed in any state prior to done and
// does not itself change the status.
func (r *ServiceRequest) Assign(workerID, workerEmail string, now time.Time) error {
	if r.Status == StatusDone {
		return ErrAlreadyDone
	}
	r.AssignedTo = workerID
	r.AssignedToEmail = workerEmail
	at := now
	r.AssignedAt = &at
	r.UpdatedAt = now
	return nil
}

// Start moves the request from new to in_progress and always stamps the
// start time. Only the assigned worker may start.
func (r *ServiceRequest) Start(workerID string, now time.Time) error {
	if r.AssignedTo != workerID {
		return ErrNotAssignee
	}
	if r.Status != StatusNew {
		return ErrNotNew
	}
	r.Status = StatusInProgress
	at := now
	r.StartedAt = &at
	r.UpdatedAt = now
	return nil
}

// Complete moves the request from in_progress to done, always stamps the
// finish time, and records an optional worker comment. No operation exists
// for reopening a done request.
func (r *ServiceRequest) Complete(workerID, comment string, now time.Time) error {
	if r.AssignedTo != workerID {
		return ErrNotAssignee
	}
	if r.Status != StatusInProgress {
		return ErrNotInProgress
	}
	r.Status = StatusDone
	at := now
	r.FinishedAt = &at
	if comment != "" {
		r.WorkerComment = comment
	}
	r.UpdatedAt = now
	return nil
}

// AuditLog represents an audit log entry written on admin mutations.
type AuditLog struct {
	LogID     string `firestore:"log_id" json:"log_id"`
	Timestamp string `firestore:"timestamp" json:"timestamp"`
	UserID    string `firestore:"user_id" json:"user_id"`
	Action    string `firestore:"action" json:"action"`
	Details   string `firestore:"details" json:"details"`
}
