package httpapi

import (
	"net/http"
	"time"

	"github.com/clipcast/clipcast/internal/server/services"
	"github.com/gin-gonic/gin"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// Cookie attributes are fixed policy: credentials never reach scripts and
// never travel over plaintext transports.
func authCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func setAuthCookies(c *gin.Context, pair *services.TokenPair, accessTTL, refreshTTL time.Duration) {
	http.SetCookie(c.Writer, authCookie(accessTokenCookie, pair.AccessToken, accessTTL))
	http.SetCookie(c.Writer, authCookie(refreshTokenCookie, pair.RefreshToken, refreshTTL))
}

func clearAuthCookies(c *gin.Context) {
	http.SetCookie(c.Writer, authCookie(accessTokenCookie, "", -time.Second))
	http.SetCookie(c.Writer, authCookie(refreshTokenCookie, "", -time.Second))
}
