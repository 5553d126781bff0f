package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/calebsouthern/attire/internal/domain"
)

// UserRepo persists users and sessions.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a UserRepo backed by db.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errDuplicateEmail{}

type errDuplicateEmail struct{}

func (errDuplicateEmail) Error() string { return "email already registered" }

const userColumns = `id, email, password_hash, COALESCE(name, ''), COALESCE(stripe_customer_id, ''),
	subscription_status, subscription_tier, COALESCE(subscription_id, ''), created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.StripeCustomerID,
		&u.SubscriptionStatus, &u.SubscriptionTier, &u.SubscriptionID,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user and returns the stored row.
func (r *UserRepo) CreateUser(ctx context.Context, email, passwordHash, name string) (*domain.User, error) {
	query := `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, email, passwordHash, name))
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	return u, err
}

// GetUserByID fetches a user by primary key.
func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail fetches a user by email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetUserByStripeCustomerID fetches the user owning a Stripe customer.
func (r *UserRepo) GetUserByStripeCustomerID(ctx context.Context, customerID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE stripe_customer_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, customerID))
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, passwordHash)
	return err
}

// UpdateStripeCustomer saves the Stripe customer ID for a user.
func (r *UserRepo) UpdateStripeCustomer(ctx context.Context, id uuid.UUID, customerID string) error {
	query := `UPDATE users SET stripe_customer_id = $2, updated_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, customerID)
	return err
}

// UpdateSubscription updates the subscription state synced from Stripe.
func (r *UserRepo) UpdateSubscription(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus, tier domain.SubscriptionTier, subscriptionID string) error {
	query := `
		UPDATE users
		SET subscription_status = $2, subscription_tier = $3,
		    subscription_id = NULLIF($4, ''), updated_at = now()
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, status, tier, subscriptionID)
	return err
}

// CreateSession inserts a session row for a hashed token.
func (r *UserRepo) CreateSession(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.Session, error) {
	query := `
		INSERT INTO sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token_hash, expires_at, created_at`

	var s domain.Session
	err := r.db.QueryRowContext(ctx, query, userID, tokenHash, expiresAt).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetUserBySessionTokenHash fetches the user for an unexpired session.
func (r *UserRepo) GetUserBySessionTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, COALESCE(u.name, ''),
		       COALESCE(u.stripe_customer_id, ''), u.subscription_status,
		       u.subscription_tier, COALESCE(u.subscription_id, ''),
		       u.created_at, u.updated_at
		FROM users u
		JOIN sessions s ON s.user_id = u.id
		WHERE s.token_hash = $1 AND s.expires_at > now()`
	return scanUser(r.db.QueryRowContext(ctx, query, tokenHash))
}

// DeleteSession removes a session by token hash. Deleting a missing
// session is not an error.
func (r *UserRepo) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

// DeleteUserSessions removes all sessions for a user (e.g. after a
// password change).
func (r *UserRepo) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// DeleteExpiredSessions clears out sessions past their expiry.
func (r *UserRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
