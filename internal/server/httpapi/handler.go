package httpapi

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/clipcast/clipcast/internal/common"
	"github.com/clipcast/clipcast/internal/logging"
	"github.com/clipcast/clipcast/internal/server/config"
	"github.com/clipcast/clipcast/internal/server/models"
	"github.com/clipcast/clipcast/internal/server/services"
	"github.com/clipcast/clipcast/internal/server/token"
	"github.com/gin-gonic/gin"
)

// Handler holds the dependencies of the HTTP surface.
type Handler struct {
	users    *services.UserService
	sessions *services.SessionService
	codec    *token.Codec
	config   *config.Config
	logger   logging.Logger
}

func NewHandler(users *services.UserService, sessions *services.SessionService, codec *token.Codec, cfg *config.Config, logger logging.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		codec:    codec,
		config:   cfg,
		logger:   logger.With("module", "httpapi"),
	}
}

func formFileMedia(c *gin.Context, field string) (*services.Media, multipart.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.Media{Body: f, ContentType: fh.Header.Get("Content-Type")}, f, nil
}

// Register handles multipart registration: text fields plus a required
// avatar and an optional cover image.
func (h *Handler) Register(c *gin.Context) {
	in := services.RegisterInput{
		FullName: c.PostForm("fullName"),
		Email:    c.PostForm("email"),
		UserName: c.PostForm("username"),
		Password: c.PostForm("password"),
	}

	if avatar, f, err := formFileMedia(c, "avatar"); err == nil {
		defer f.Close()
		in.Avatar = avatar
	}
	if cover, f, err := formFileMedia(c, "coverImage"); err == nil {
		defer f.Close()
		in.Cover = cover
	}

	user, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	writeSuccess(c, http.StatusCreated, user, "user registered successfully")
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login verifies credentials, sets both auth cookies, and returns the user
// together with the token pair in the body.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, pair, err := h.users.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeServiceError(c, err)
		return
	}

	setAuthCookies(c, pair, h.config.AccessTokenValidityDuration, h.config.RefreshTokenValidityDuration)

	writeSuccess(c, http.StatusOK, gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

// Logout revokes the live refresh token and clears both cookies.
func (h *Handler) Logout(c *gin.Context) {
	user, ok := principalFrom(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "missing credential")
		return
	}

	if err := h.users.Logout(c.Request.Context(), user.ID); err != nil {
		writeServiceError(c, err)
		return
	}

	clearAuthCookies(c)
	writeSuccess(c, http.StatusOK, gin.H{}, "user logged out")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh rotates the presented refresh token. The token is read from the
// cookie first, then from the JSON body. On success both cookies are reset
// with the new values.
func (h *Handler) Refresh(c *gin.Context) {
	presented := ""
	if cookie, err := c.Request.Cookie(refreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		writeError(c, http.StatusUnauthorized, "missing credential")
		return
	}

	pair, err := h.sessions.Rotate(c.Request.Context(), presented)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	setAuthCookies(c, pair, h.config.AccessTokenValidityDuration, h.config.RefreshTokenValidityDuration)

	writeSuccess(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "token refreshed")
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	user, ok := principalFrom(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "missing credential")
		return
	}
	writeSuccess(c, http.StatusOK, user, "current user")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	user, ok := principalFrom(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "missing credential")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, gin.H{}, "password changed")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	user, ok := principalFrom(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "missing credential")
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.users.UpdateAccount(c.Request.Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, updated, "account updated")
}

func (h *Handler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", h.users.UpdateAvatar)
}

func (h *Handler) UpdateCover(c *gin.Context) {
	h.updateImage(c, "coverImage", h.users.UpdateCoverImage)
}

func (h *Handler) updateImage(c *gin.Context, field string, update func(ctx context.Context, userID string, m services.Media) (*models.User, error)) {
	user, ok := principalFrom(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "missing credential")
		return
	}

	media, f, err := formFileMedia(c, field)
	if err != nil {
		writeError(c, http.StatusBadRequest, field+" file is required")
		return
	}
	defer f.Close()

	updated, err := update(c.Request.Context(), user.ID, *media)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	writeSuccess(c, http.StatusOK, updated, field+" updated")
}
