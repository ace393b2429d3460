// Package users declares the server-side repository contract for principal
// records and their session field.
package users

import (
	"context"

	"github.com/clipcast/clipcast/internal/server/models"
)

// Repository defines operations over user records. Implementations return
// common.ErrorNotFound when a record is absent.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByLogin looks a user up by either email or username.
	GetByLogin(ctx context.Context, login string) (*models.User, error)

	// UpdateRefreshToken unconditionally replaces the stored refresh token.
	// This is a single-field write: no other record validation runs.
	UpdateRefreshToken(ctx context.Context, id string, token string) error

	// SwapRefreshToken replaces the stored refresh token only if its current
	// value equals old. When the guard does not match (already rotated away
	// or revoked) it returns common.ErrTokenReused. The compare and the
	// replace happen in one statement, so of two concurrent swaps presenting
	// the same old value exactly one can win.
	SwapRefreshToken(ctx context.Context, id string, oldToken, newToken string) error

	// ClearRefreshToken sets the stored refresh token to absent. Clearing an
	// already-absent token is not an error.
	ClearRefreshToken(ctx context.Context, id string) error

	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateAccount(ctx context.Context, id string, fullName, email string) error
	UpdateAvatar(ctx context.Context, id string, url string) error
	UpdateCoverImage(ctx context.Context, id string, url string) error
}
