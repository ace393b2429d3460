// Package services contains server-side business logic. This file implements
// SessionService, the token lifecycle manager: it mints access/refresh token
// pairs, rotates refresh tokens on use, and revokes them on logout.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clipcast/clipcast/internal/common"
	"github.com/clipcast/clipcast/internal/server/repositories/repomanager"
	"github.com/clipcast/clipcast/internal/server/token"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionService owns the session state of a principal: exactly one live
// refresh token, mirrored in the user's refresh_token column. A refresh
// token is accepted for rotation only while it is the stored value; rotation
// and revocation replace or clear that value, which retires every
// previously issued refresh token regardless of its cryptographic validity.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *token.Codec
}

// NewSessionService constructs a SessionService around the given codec and
// repositories.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, codec *token.Codec) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		codec:       codec,
	}
}

// Issue mints a new token pair for userID and persists the refresh token as
// the user's live session. The caller must have authenticated the user
// already. If persistence fails the pair is discarded and
// common.ErrTokenPersistence is returned: a token the store does not know
// about must never reach the client.
func (s *SessionService) Issue(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.codec.Sign(userID, token.Access)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.codec.Sign(userID, token.Refresh)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.UpdateRefreshToken(ctx, userID, refresh); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrorUnavailable
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenPersistence, err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate validates a presented refresh token, retires it, and returns a
// fresh pair. A token that verifies but no longer matches the stored value
// was already rotated away or revoked; presenting it again always fails
// with common.ErrTokenReused.
func (s *SessionService) Rotate(ctx context.Context, presented string) (*TokenPair, error) {
	claims, err := s.codec.Verify(presented, token.Refresh)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid or expired refresh token", common.ErrorUnauthorized)
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown principal", common.ErrorUnauthorized)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrorUnavailable
		}
		return nil, common.ErrorInternal
	}

	// Constant-time comparison against the stored value. This only
	// classifies the failure; the swap below is the authoritative check.
	if !user.RefreshToken.Valid ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken.String), []byte(presented)) != 1 {
		return nil, common.ErrTokenReused
	}

	access, err := s.codec.Sign(user.ID, token.Access)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.codec.Sign(user.ID, token.Refresh)
	if err != nil {
		return nil, common.ErrorInternal
	}

	// Single guarded UPDATE: of concurrent rotations presenting the same
	// token, exactly one advances the stored value.
	if err := repo.SwapRefreshToken(ctx, user.ID, presented, refresh); err != nil {
		if errors.Is(err, common.ErrTokenReused) {
			return nil, common.ErrTokenReused
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrorUnavailable
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenPersistence, err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Revoke clears the user's stored refresh token. Revoking an already-revoked
// user succeeds silently; afterwards every previously issued refresh token
// fails rotation.
func (s *SessionService) Revoke(ctx context.Context, userID string) error {
	repo := s.repomanager.Users(s.db)
	if err := repo.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return common.ErrorUnavailable
		}
		return fmt.Errorf("error clearing refresh token: %w", err)
	}
	return nil
}
