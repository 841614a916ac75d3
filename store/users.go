package store

import (
	"context"
	"time"

	"nutriguide/models"
)

// UserStore is the persistence boundary for accounts. Lookups by username
// and email are case-insensitive; callers are expected to trim and
// lower-case before comparing (the Postgres implementation compares
// LOWER(...) regardless, and unique indexes back the Exists checks).
type UserStore interface {
	Load(ctx context.Context, id string) (*models.User, error)
	LoadByUsername(ctx context.Context, username string) (*models.User, error)
	LoadByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// WithTx runs fn against a store whose reads lock the rows they touch,
	// so a read-modify-write either fully applies or fully rolls back.
	WithTx(ctx context.Context, fn func(UserStore) error) error

	// Subscription sweep support.
	ExpiredUnnotified(ctx context.Context, now time.Time) ([]*models.User, error)
	MarkExpiryNotified(ctx context.Context, id string) error
}
