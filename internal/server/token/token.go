// Package token implements signing and verification of the two session
// token classes. Access and refresh tokens carry the same claim shape but
// are signed with independent secrets and lifetimes, so a leaked secret for
// one class never allows forging the other.
package token

import (
	"errors"
	"time"

	"github.com/clipcast/clipcast/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Class selects which secret and lifetime a token is signed and verified with.
type Class int

const (
	Access Class = iota
	Refresh
)

// Config carries the signing material for both token classes. It is injected
// at construction so tests can run with fixed secrets and short lifetimes.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims — standard registered claims plus the user ID the token asserts.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// Codec signs and verifies tokens. It holds no mutable state and is safe
// for concurrent use.
type Codec struct {
	config Config
}

func NewCodec(cfg Config) *Codec {
	return &Codec{config: cfg}
}

func (c *Codec) secret(class Class) []byte {
	if class == Refresh {
		return c.config.RefreshSecret
	}
	return c.config.AccessSecret
}

func (c *Codec) ttl(class Class) time.Duration {
	if class == Refresh {
		return c.config.RefreshTTL
	}
	return c.config.AccessTTL
}

// Sign issues a token of the given class for userID.
func (c *Codec) Sign(userID string, class Class) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti makes every signed token unique even within one
			// second, so a rotated pair never equals its predecessor.
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl(class))),
		},
		UserID: userID,
	})

	tokenString, err := t.SignedString(c.secret(class))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature integrity and expiry of tokenString against the
// given class and returns the embedded claims. Failures map onto the common
// sentinels: ErrTokenExpired, ErrInvalidToken, ErrMalformedToken.
func (c *Codec) Verify(tokenString string, class Class) (*Claims, error) {
	claims := &Claims{}

	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret(class), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, common.ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, common.ErrInvalidToken
		default:
			return nil, common.ErrInvalidToken
		}
	}

	if !t.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
