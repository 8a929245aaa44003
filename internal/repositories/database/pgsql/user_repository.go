package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/SscSPs/cyberlearn_backend/internal/core/domain"
	portsrepo "github.com/SscSPs/cyberlearn_backend/internal/core/ports/repositories"
	"github.com/SscSPs/cyberlearn_backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(db *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: db}}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

const userColumns = `user_id, username, full_name, email, password_hash, is_verified, role, auth_provider,
	avatar_url, last_login_at, password_reset_token_hash, password_reset_expires_at, created_at, updated_at`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Helper to convert domain.User to models.User
func toModelUser(d domain.User) models.User {
	m := models.User{
		UserID:                 d.UserID,
		Username:               d.Username,
		FullName:               d.FullName,
		Email:                  d.Email,
		IsVerified:             d.IsVerified,
		Role:                   string(d.Role),
		AuthProvider:           string(d.AuthProvider),
		AvatarURL:              nullString(d.AvatarURL),
		LastLoginAt:            nullTime(d.LastLoginAt),
		PasswordResetTokenHash: nullString(d.PasswordResetTokenHash),
		PasswordResetExpiresAt: nullTime(d.PasswordResetExpiresAt),
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
	}
	if d.PasswordHash != nil {
		m.PasswordHash = nullString(*d.PasswordHash)
	}
	return m
}

// Helper to convert models.User to domain.User
func toDomainUser(m models.User) domain.User {
	d := domain.User{
		UserID:                 m.UserID,
		Username:               m.Username,
		FullName:               m.FullName,
		Email:                  m.Email,
		IsVerified:             m.IsVerified,
		Role:                   domain.UserRole(m.Role),
		AuthProvider:           domain.AuthProvider(m.AuthProvider),
		AvatarURL:              m.AvatarURL.String,
		LastLoginAt:            timePtr(m.LastLoginAt),
		PasswordResetTokenHash: m.PasswordResetTokenHash.String,
		PasswordResetExpiresAt: timePtr(m.PasswordResetExpiresAt),
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
	if m.PasswordHash.Valid {
		hash := m.PasswordHash.String
		d.PasswordHash = &hash
	}
	return d
}

func scanUser(row pgx.Row) (models.User, error) {
	var m models.User
	err := row.Scan(
		&m.UserID,
		&m.Username,
		&m.FullName,
		&m.Email,
		&m.PasswordHash,
		&m.IsVerified,
		&m.Role,
		&m.AuthProvider,
		&m.AvatarURL,
		&m.LastLoginAt,
		&m.PasswordResetTokenHash,
		&m.PasswordResetExpiresAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

func (r *PgxUserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + `;`
	m, err := scanUser(r.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user := toDomainUser(m)
	return &user, nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.ErrNotFound
	}
	user, err := r.findOne(ctx, "user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	history, err := r.loginHistory(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	user.LoginHistory = history
	return user, nil
}

func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = $1", email)
}

func (r *PgxUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = $1", username)
}

func (r *PgxUserRepository) FindUserByPasswordResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	return r.findOne(ctx, "password_reset_token_hash = $1", tokenHash)
}

func (r *PgxUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	// Default limit if not specified or invalid
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2;`
	rows, err := r.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		m, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, toDomainUser(m))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", rows.Err())
	}
	return users, nil
}

// SaveUser inserts user. A generated ID is written back only once the insert succeeds.
func (r *PgxUserRepository) SaveUser(ctx context.Context, user *domain.User) error {
	userID := user.UserID
	if userID == "" {
		userID = uuid.NewString()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	m := toModelUser(*user)
	m.UserID = userID
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.UserID,
		m.Username,
		m.FullName,
		m.Email,
		m.PasswordHash,
		m.IsVerified,
		m.Role,
		m.AuthProvider,
		m.AvatarURL,
		m.LastLoginAt,
		m.PasswordResetTokenHash,
		m.PasswordResetExpiresAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user email or username already exists: %w", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	user.UserID = userID
	return nil
}

// RecordLogin inserts the login and trims the history to the newest MaxLoginHistory rows.
func (r *PgxUserRepository) RecordLogin(ctx context.Context, userID string, record domain.LoginRecord) (err error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = r.Rollback(ctx, tx)
		}
	}()

	cmdTag, err := tx.Exec(ctx,
		`UPDATE users SET last_login_at = $1, updated_at = $1 WHERE user_id = $2;`,
		record.Timestamp, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO user_logins (user_id, address, user_agent, logged_in_at) VALUES ($1, $2, $3, $4);`,
		userID, record.Address, record.UserAgent, record.Timestamp); err != nil {
		return fmt.Errorf("failed to insert login record: %w", err)
	}

	if _, err = tx.Exec(ctx, `
		DELETE FROM user_logins
		WHERE user_id = $1 AND login_id NOT IN (
			SELECT login_id FROM user_logins
			WHERE user_id = $1
			ORDER BY logged_in_at DESC, login_id DESC
			LIMIT $2
		);`, userID, domain.MaxLoginHistory); err != nil {
		return fmt.Errorf("failed to trim login history: %w", err)
	}

	return r.Commit(ctx, tx)
}

func (r *PgxUserRepository) loginHistory(ctx context.Context, userID string) ([]domain.LoginRecord, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT user_id, address, user_agent, logged_in_at FROM user_logins
		WHERE user_id = $1
		ORDER BY logged_in_at ASC, login_id ASC;`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query login history: %w", err)
	}
	defer rows.Close()

	var history []domain.LoginRecord
	for rows.Next() {
		var m models.UserLogin
		if err := rows.Scan(&m.UserID, &m.Address, &m.UserAgent, &m.LoggedInAt); err != nil {
			return nil, fmt.Errorf("failed to scan login row: %w", err)
		}
		history = append(history, domain.LoginRecord{Address: m.Address, UserAgent: m.UserAgent, Timestamp: m.LoggedInAt})
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating login rows: %w", rows.Err())
	}
	return history, nil
}

func (r *PgxUserRepository) SetPasswordResetToken(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error {
	cmdTag, err := r.Pool.Exec(ctx, `
		UPDATE users
		SET password_reset_token_hash = $1, password_reset_expires_at = $2, updated_at = NOW()
		WHERE user_id = $3;`, tokenHash, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("failed to set password reset token: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxUserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	cmdTag, err := r.Pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $1, password_reset_token_hash = NULL, password_reset_expires_at = NULL, updated_at = NOW()
		WHERE user_id = $2;`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}
