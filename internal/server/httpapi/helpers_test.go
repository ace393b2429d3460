package httpapi

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/clipcast/clipcast/internal/common"
	"github.com/clipcast/clipcast/internal/dbx"
	"github.com/clipcast/clipcast/internal/logging"
	"github.com/clipcast/clipcast/internal/server/config"
	"github.com/clipcast/clipcast/internal/server/models"
	usersrepo "github.com/clipcast/clipcast/internal/server/repositories/users"
	"github.com/clipcast/clipcast/internal/server/services"
	"github.com/clipcast/clipcast/internal/server/token"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memRepo is an in-memory users.Repository with the store's
// compare-and-replace semantics for the refresh token field.
type memRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*models.User
}

func newMemRepo(users ...*models.User) *memRepo {
	m := make(map[string]*models.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &memRepo{users: m}
}

func (r *memRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	r.seq++
	u.ID = "u" + time.Now().Format("150405") + "-" + string(rune('a'+r.seq))
	u.CreatedAt = time.Now()
	r.users[u.ID] = u
	copied := *u
	return &copied, nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == login || u.UserName == login {
			copied := *u
			return &copied, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memRepo) UpdateRefreshToken(ctx context.Context, id string, tok string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.RefreshToken = sql.NullString{String: tok, Valid: true}
	return nil
}

func (r *memRepo) SwapRefreshToken(ctx context.Context, id string, oldToken, newToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || !u.RefreshToken.Valid || u.RefreshToken.String != oldToken {
		return common.ErrTokenReused
	}
	u.RefreshToken = sql.NullString{String: newToken, Valid: true}
	return nil
}

func (r *memRepo) ClearRefreshToken(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.RefreshToken = sql.NullString{}
	}
	return nil
}

func (r *memRepo) UpdatePassword(ctx context.Context, id string, hash string) error {
	return r.set(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r *memRepo) UpdateAccount(ctx context.Context, id string, fullName, email string) error {
	return r.set(id, func(u *models.User) { u.FullName = fullName; u.Email = email })
}

func (r *memRepo) UpdateAvatar(ctx context.Context, id string, url string) error {
	return r.set(id, func(u *models.User) { u.AvatarURL = url })
}

func (r *memRepo) UpdateCoverImage(ctx context.Context, id string, url string) error {
	return r.set(id, func(u *models.User) { u.CoverImageURL = url })
}

func (r *memRepo) set(id string, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	return nil
}

type memRepoManager struct {
	repo *memRepo
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.repo }

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, body io.Reader, contentType string) (string, error) {
	return "http://media.local/" + contentType, nil
}

type testStack struct {
	router   *gin.Engine
	repo     *memRepo
	codec    *token.Codec
	sessions *services.SessionService
	config   *config.Config
}

func newTestStack(t *testing.T, seed ...*models.User) *testStack {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AccessTokenSecret = "test-access-secret"
	cfg.RefreshTokenSecret = "test-refresh-secret"

	codec := token.NewCodec(token.Config{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenValidityDuration,
		RefreshTTL:    cfg.RefreshTokenValidityDuration,
	})

	repo := newMemRepo(seed...)
	rm := &memRepoManager{repo: repo}
	sessions := services.NewSessionService(nil, rm, codec)
	users := services.NewUserService(nil, rm, sessions, stubUploader{})

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	handler := NewHandler(users, sessions, codec, cfg, logger)

	return &testStack{
		router:   NewRouter(handler),
		repo:     repo,
		codec:    codec,
		sessions: sessions,
		config:   cfg,
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	return string(h)
}

func seedUser(t *testing.T, password string) *models.User {
	t.Helper()
	return &models.User{
		ID:           "u42",
		Email:        "alice@example.com",
		UserName:     "alice",
		FullName:     "Alice Example",
		PasswordHash: hashPassword(t, password),
	}
}
