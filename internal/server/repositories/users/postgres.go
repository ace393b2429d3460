// Package users provides a PostgreSQL-backed repository for principal
// records, including the stored refresh token used by the session flow.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clipcast/clipcast/internal/common"
	"github.com/clipcast/clipcast/internal/dbx"
	"github.com/clipcast/clipcast/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, username, full_name, password_hash, avatar_url, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.UserName, user.FullName, user.PasswordHash,
		user.AvatarURL, user.CoverImageURL).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const userColumns = `id, email, username, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at`

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.UserName, &user.FullName,
		&user.PasswordHash, &user.AvatarURL, &user.CoverImageURL,
		&user.RefreshToken, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, login))
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, id string, token string) error {
	return r.exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, id, token)
}

func (r *PostgresRepository) SwapRefreshToken(ctx context.Context, id string, oldToken, newToken string) error {
	query := `
		UPDATE users SET refresh_token = $3
		WHERE id = $1 AND refresh_token = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, oldToken, newToken)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	// The guard did not match: the token was rotated away or revoked by a
	// concurrent request.
	if n == 0 {
		return common.ErrTokenReused
	}
	return nil
}

func (r *PostgresRepository) ClearRefreshToken(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET refresh_token = NULL WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
}

func (r *PostgresRepository) UpdateAccount(ctx context.Context, id string, fullName, email string) error {
	err := r.exec(ctx, `UPDATE users SET full_name = $2, email = $3 WHERE id = $1`, id, fullName, email)
	if err != nil && isUniqueViolation(err) {
		return common.ErrorAlreadyExists
	}
	return err
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id string, url string) error {
	return r.exec(ctx, `UPDATE users SET avatar_url = $2 WHERE id = $1`, id, url)
}

func (r *PostgresRepository) UpdateCoverImage(ctx context.Context, id string, url string) error {
	return r.exec(ctx, `UPDATE users SET cover_image_url = $2 WHERE id = $1`, id, url)
}
