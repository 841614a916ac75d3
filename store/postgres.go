package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"nutriguide/apperr"
	"nutriguide/models"
)

const uniqueViolation = "23505"

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresUserStore persists accounts in the users table. Inside WithTx the
// single-row loads take FOR UPDATE so concurrent mutations of the same
// account serialize.
type PostgresUserStore struct {
	db *sql.DB
	q  queryer
	tx bool
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db, q: db}
}

const userColumns = `id, username, email, password_hash,
	COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(bio, ''), COALESCE(profile_picture_url, ''),
	role, tier,
	max_saved_recipes, max_meal_plans,
	subscription_ends_at, unlimited_saved_recipes, unlimited_meal_plans, ai_recommendations, advanced_analytics,
	expiry_notified, created_at, updated_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*models.User, error) {
	var (
		u               models.User
		maxSaved        sql.NullInt64
		maxPlans        sql.NullInt64
		subEnd          sql.NullTime
		unlimitedSaved  sql.NullBool
		unlimitedPlans  sql.NullBool
		aiRecs          sql.NullBool
		advAnalytics    sql.NullBool
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Bio, &u.ProfilePictureURL,
		&u.Role, &u.Tier,
		&maxSaved, &maxPlans,
		&subEnd, &unlimitedSaved, &unlimitedPlans, &aiRecs, &advAnalytics,
		&u.ExpiryNotified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Only the columns of the active tier become part of the record; the
	// other group is ignored even if the row still carries values.
	switch u.Tier {
	case models.TierPremium:
		p := &models.PremiumEntitlements{
			UnlimitedSavedRecipes: unlimitedSaved.Bool,
			UnlimitedMealPlans:    unlimitedPlans.Bool,
			AIRecommendations:     aiRecs.Bool,
			AdvancedAnalytics:     advAnalytics.Bool,
		}
		if subEnd.Valid {
			p.SubscriptionEndsAt = subEnd.Time
		}
		u.Premium = p
	default:
		r := models.DefaultRegularLimits()
		if maxSaved.Valid {
			r.MaxSavedRecipes = int(maxSaved.Int64)
		}
		if maxPlans.Valid {
			r.MaxMealPlans = int(maxPlans.Int64)
		}
		u.Regular = r
	}

	return &u, nil
}

// tierColumns flattens the active payload into the nullable column set,
// nulling out the inactive group so nothing stale survives a transition.
func tierColumns(u *models.User) (maxSaved, maxPlans any, subEnd, unlimitedSaved, unlimitedPlans, aiRecs, advAnalytics any) {
	if u.Tier == models.TierPremium && u.Premium != nil {
		var end any
		if !u.Premium.SubscriptionEndsAt.IsZero() {
			end = u.Premium.SubscriptionEndsAt
		}
		return nil, nil, end, u.Premium.UnlimitedSavedRecipes, u.Premium.UnlimitedMealPlans,
			u.Premium.AIRecommendations, u.Premium.AdvancedAnalytics
	}
	r := u.Regular
	if r == nil {
		r = models.DefaultRegularLimits()
	}
	return r.MaxSavedRecipes, r.MaxMealPlans, nil, nil, nil, nil, nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if strings.Contains(pqErr.Constraint, "email") {
			return apperr.Conflict("email already registered")
		}
		return apperr.Conflict("username already taken")
	}
	return err
}

func (s *PostgresUserStore) forUpdate() string {
	if s.tx {
		return " FOR UPDATE"
	}
	return ""
}

func (s *PostgresUserStore) loadWhere(ctx context.Context, where string, arg any) (*models.User, error) {
	row := s.q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+s.forUpdate(), arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user not found")
	} else if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *PostgresUserStore) Load(ctx context.Context, id string) (*models.User, error) {
	return s.loadWhere(ctx, "id = $1", id)
}

func (s *PostgresUserStore) LoadByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.loadWhere(ctx, "LOWER(username) = LOWER($1)", username)
}

func (s *PostgresUserStore) LoadByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.loadWhere(ctx, "LOWER(email) = LOWER($1)", email)
}

func (s *PostgresUserStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *PostgresUserStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	maxSaved, maxPlans, subEnd, unlimitedSaved, unlimitedPlans, aiRecs, advAnalytics := tierColumns(u)

	err := s.q.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name, bio, profile_picture_url,
			role, tier, max_saved_recipes, max_meal_plans,
			subscription_ends_at, unlimited_saved_recipes, unlimited_meal_plans, ai_recommendations, advanced_analytics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Bio, u.ProfilePictureURL,
		u.Role, u.Tier, maxSaved, maxPlans,
		subEnd, unlimitedSaved, unlimitedPlans, aiRecs, advAnalytics,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return nil, mapped
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *PostgresUserStore) Update(ctx context.Context, u *models.User) error {
	maxSaved, maxPlans, subEnd, unlimitedSaved, unlimitedPlans, aiRecs, advAnalytics := tierColumns(u)

	res, err := s.q.ExecContext(ctx, `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3,
			first_name = $4, last_name = $5, bio = $6, profile_picture_url = $7,
			role = $8, tier = $9,
			max_saved_recipes = $10, max_meal_plans = $11,
			subscription_ends_at = $12, unlimited_saved_recipes = $13, unlimited_meal_plans = $14,
			ai_recommendations = $15, advanced_analytics = $16,
			expiry_notified = $17, updated_at = $18
		WHERE id = $19
	`, u.Username, u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.Bio, u.ProfilePictureURL,
		u.Role, u.Tier,
		maxSaved, maxPlans,
		subEnd, unlimitedSaved, unlimitedPlans,
		aiRecs, advAnalytics,
		u.ExpiryNotified, u.UpdatedAt, u.ID)

	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != err {
			return mapped
		}
		return apperr.Internal(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (s *PostgresUserStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return apperr.Internal(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (s *PostgresUserStore) existsWhere(ctx context.Context, where string, arg any) (bool, error) {
	var dummy int
	err := s.q.QueryRowContext(ctx, "SELECT 1 FROM users WHERE "+where, arg).Scan(&dummy)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, apperr.Internal(err)
	}
	return true, nil
}

func (s *PostgresUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.existsWhere(ctx, "LOWER(username) = LOWER($1)", username)
}

func (s *PostgresUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.existsWhere(ctx, "LOWER(email) = LOWER($1)", email)
}

func (s *PostgresUserStore) WithTx(ctx context.Context, fn func(UserStore) error) error {
	if s.tx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Internal(err)
	}

	txStore := &PostgresUserStore{db: s.db, q: tx, tx: true}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *PostgresUserStore) ExpiredUnnotified(ctx context.Context, now time.Time) ([]*models.User, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+userColumns+` FROM users
		WHERE tier = 'PREMIUM' AND subscription_ends_at IS NOT NULL
			AND subscription_ends_at <= $1 AND NOT expiry_notified`, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *PostgresUserStore) MarkExpiryNotified(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, "UPDATE users SET expiry_notified = TRUE WHERE id = $1", id)
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
