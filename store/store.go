package store

import (
	"advisory/models"
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

// Store is the record store behind every workflow. Reads and writes go
// through GORM; writes to the same key are serialized by an in-process
// keyed mutex and, on server databases, by a row lock inside the
// transaction.
type Store struct {
	db    *gorm.DB
	locks *KeyedMutex
	held  map[string]bool
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, locks: NewKeyedMutex()}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func UserKey(email string) string      { return "user:" + models.NormalizeEmail(email) }
func PaymentKey(orderID string) string { return "payment:" + orderID }

// Transaction runs fn in one database transaction while holding keys. Calls
// made through tx on a held key do not lock it again.
func (s *Store) Transaction(ctx context.Context, keys []string, fn func(tx *Store) error) error {
	held := make(map[string]bool, len(keys)+len(s.held))
	for k := range s.held {
		held[k] = true
	}
	// fixed order so two transactions over the same keys cannot deadlock
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, k := range sorted {
		if held[k] {
			continue
		}
		unlock := s.locks.Lock(k)
		defer unlock()
		held[k] = true
	}

	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&Store{db: db, locks: s.locks, held: held})
	})
}

func (s *Store) lock(key string) func() {
	if s.held[key] {
		return func() {}
	}
	return s.locks.Lock(key)
}

// forUpdate adds a row lock where the dialect supports one.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
