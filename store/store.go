// Package store is the device-local persistence layer for work sessions: a
// Badger key-value store keyed per owner so accounts do not collide. A
// missing or unparseable payload loads as an empty list, never as an error.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger"

	"maintdesk/models"
)

const keyPrefix = "work_sessions_v1_"

func sessionsKey(ownerID string) []byte {
	return []byte(keyPrefix + ownerID)
}

// Store wraps the Badger database.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the Badger database located in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the saved session list for the owner, newest first. No key
// and corrupt data both yield an empty list.
func (s *Store) Load(ownerID string) ([]models.WorkSession, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionsKey(ownerID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return []models.WorkSession{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions for %s: %w", ownerID, err)
	}

	var sessions []models.WorkSession
	if err := json.Unmarshal(raw, &sessions); err != nil {
		// Corrupt payload is treated as "no data".
		return []models.WorkSession{}, nil
	}
	if sessions == nil {
		sessions = []models.WorkSession{}
	}
	return sessions, nil
}

// Save overwrites the owner's full session list in a single transaction, so
// no partial write is ever visible to a reader.
func (s *Store) Save(ownerID string, sessions []models.WorkSession) error {
	raw, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to encode sessions for %s: %w", ownerID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionsKey(ownerID), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to save sessions for %s: %w", ownerID, err)
	}
	return nil
}
