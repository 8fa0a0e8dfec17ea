package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a household account with a bcrypt-hashed password.
func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email, password string) (User, error) {
	email = normalizeEmail(email)
	if _, err := r.UserByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)`,
		name, email, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("user id: %w", err)
	}

	r.logger.InfoContext(ctx, "User created", log.FieldOperation, log.OpCreate, "user_id", id)
	return User{ID: id, Name: name, Email: email, PasswordHash: string(hash)}, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE email = ?`, normalizeEmail(email)))
}

func (r *SQLiteRepository) userByID(ctx context.Context, id int64) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// Authenticate checks credentials. Unknown email and wrong password are the
// same error.
func (r *SQLiteRepository) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := r.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// CreateSession issues a fresh random session token for userID.
func (r *SQLiteRepository) CreateSession(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	if err := r.PutSession(ctx, token, userID); err != nil {
		return "", err
	}
	return token, nil
}

// PutSession binds a known token to userID, replacing any previous binding.
func (r *SQLiteRepository) PutSession(ctx context.Context, token string, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (token, user_id) VALUES (?, ?)`, token, userID)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SessionUser(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrNotFound
	}
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.email, u.password_hash
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?`, token))
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Profile(ctx context.Context, userID int64) (core.Profile, error) {
	u, err := r.userByID(ctx, userID)
	if err != nil {
		return core.Profile{}, err
	}
	return core.Profile{Name: u.Name, Email: u.Email}, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, userID int64, p core.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ? WHERE id = ?`,
		strings.TrimSpace(p.Name), normalizeEmail(p.Email), userID)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// ChangePassword replaces the password after verifying the current one.
func (r *SQLiteRepository) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := r.userByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, string(hash), userID); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) NotificationSettings(ctx context.Context, userID int64) (core.NotificationSettings, error) {
	var ns core.NotificationSettings
	err := r.db.QueryRowContext(ctx,
		`SELECT weekly_summary, budget_alerts, savings_updates FROM users WHERE id = ?`, userID).
		Scan(&ns.WeeklySummary, &ns.BudgetAlerts, &ns.SavingsUpdates)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotificationSettings{}, ErrNotFound
	}
	if err != nil {
		return core.NotificationSettings{}, fmt.Errorf("select notification settings: %w", err)
	}
	return ns, nil
}

func (r *SQLiteRepository) UpdateNotificationSettings(ctx context.Context, userID int64, ns core.NotificationSettings) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET weekly_summary = ?, budget_alerts = ?, savings_updates = ? WHERE id = ?`,
		ns.WeeklySummary, ns.BudgetAlerts, ns.SavingsUpdates, userID)
	if err != nil {
		return fmt.Errorf("update notification settings: %w", err)
	}
	return nil
}
