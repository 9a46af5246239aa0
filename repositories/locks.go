// Package repositories holds the durable storage behind the guard's state.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// stateKey holds the entire lock record. The registry is one small document
// read once at startup and rewritten on every mutation, so a single key is
// the whole schema.
const stateKey = "guard:state"

// LockRecord is the persisted shape of the lock registry.
type LockRecord struct {
	Titles    map[string]string            `json:"locked_titles"`
	Nicknames map[string]map[string]string `json:"locked_nicknames"`
	Admin     string                       `json:"admin"`
	Prefix    string                       `json:"prefix"`
}

type ILockRepository interface {
	// Load returns the persisted record, or nil when none has ever been
	// written.
	Load() (*LockRecord, error)
	Save(record LockRecord) error
}

type LockRepository struct {
	db *badger.DB
}

func NewLockRepository(db *badger.DB) LockRepository {
	return LockRepository{db: db}
}

func (r LockRepository) Load() (*LockRecord, error) {
	var record *LockRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			var rec LockRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal lock record: %w", err)
			}
			record = &rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r LockRepository) Save(record LockRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(stateKey), data)
	})
}
