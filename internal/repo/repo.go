package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTxAttempts = 3

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// WithTx runs fn in one transaction. Serialization failures and deadlocks
// rerun fn from the start, so fn must not keep state from a previous attempt.
func (r *GormRepo) WithTx(ctx context.Context, fn func(tx *GormRepo) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&GormRepo{DB: tx})
		})
		if err == nil || !db.IsRetryable(err) {
			return err
		}
	}
	return err
}

func (r *GormRepo) conn(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx)
}

func (r *GormRepo) locked(ctx context.Context, forUpdate bool) *gorm.DB {
	q := r.conn(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return apperr.Persistence(err)
}
