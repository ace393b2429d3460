package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/clipcast/clipcast/internal/common"
	"github.com/clipcast/clipcast/internal/logging"
	"github.com/clipcast/clipcast/internal/server/models"
	"github.com/clipcast/clipcast/internal/server/token"
	"github.com/gin-gonic/gin"
)

type ctxKey string

const principalKey ctxKey = "principal"

// bearerToken extracts the access credential. The cookie takes precedence
// over the Authorization header when both are present.
func bearerToken(c *gin.Context) string {
	if cookie, err := c.Request.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

// Authenticate is the gate in front of protected routes: it verifies the
// access token, resolves the principal, and attaches the sanitized record
// to the request context. It never mutates session state.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c)
		if tok == "" {
			writeError(c, http.StatusUnauthorized, "missing credential")
			return
		}

		claims, err := h.codec.Verify(tok, token.Access)
		if err != nil {
			if errors.Is(err, common.ErrMalformedToken) {
				writeError(c, http.StatusBadRequest, common.ErrMalformedToken.Error())
				return
			}
			writeError(c, http.StatusUnauthorized, err.Error())
			return
		}

		user, err := h.users.CurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			// 401, not 404: the gate must not leak which principals exist.
			if errors.Is(err, common.ErrorNotFound) {
				writeError(c, http.StatusUnauthorized, "principal no longer exists")
				return
			}
			writeServiceError(c, err)
			return
		}

		c.Set(string(principalKey), user)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), principalKey, user))
	}
}

// principalFrom returns the authenticated user attached by Authenticate.
func principalFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(string(principalKey))
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// PrincipalFromContext exposes the authenticated user to code that only
// holds the request context.
func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(principalKey).(*models.User)
	return user, ok
}

// requestLogger logs one line per request through the shared logger.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
