package repositories

import (
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// gormStore implements DataStore on a *gorm.DB. The same type serves both the
// root connection and transaction scopes; InTransaction hands fn a store bound
// to the transaction handle.
type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) DataStore {
	return &gormStore{db: db}
}

func (s *gormStore) InTransaction(fn func(tx DataStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsSerializationFailure reports whether err is a retryable transaction
// conflict (serialization failure or deadlock).
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}
