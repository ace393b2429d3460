package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/clipcast/clipcast/internal/common"
	"github.com/clipcast/clipcast/internal/server/models"
	"github.com/clipcast/clipcast/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"

	"database/sql"
)

// Uploader stores a media object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, contentType string) (string, error)
}

// UserService provides account-related operations:
//   - Register: create users with their avatar/cover media
//   - Login / Logout: verify credentials and manage the session
//   - CurrentUser, ChangePassword, UpdateAccount, UpdateAvatar, UpdateCoverImage
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    *SessionService
	media       Uploader
}

// NewUserService constructs a UserService using repositories, the session
// service, and a media uploader.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sessions *SessionService, media Uploader) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		media:       media,
	}
}

// Media carries one uploaded file from the transport layer.
type Media struct {
	Body        io.Reader
	ContentType string
}

// RegisterInput carries the registration form. Avatar is required, Cover is
// optional.
type RegisterInput struct {
	FullName string
	Email    string
	UserName string
	Password string
	Avatar   *Media
	Cover    *Media
}

func (in *RegisterInput) validate() error {
	for _, field := range []string{in.FullName, in.Email, in.UserName, in.Password} {
		if strings.TrimSpace(field) == "" {
			return fmt.Errorf("%w: required fields cannot be empty", common.ErrorValidation)
		}
	}
	if in.Avatar == nil {
		return fmt.Errorf("%w: avatar file is required", common.ErrorValidation)
	}
	return nil
}

// Register validates the input, uploads the media, and creates the user.
// The returned record is sanitized.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	avatarURL, err := s.media.Upload(ctx, in.Avatar.Body, in.Avatar.ContentType)
	if err != nil {
		return nil, fmt.Errorf("error uploading avatar: %w", err)
	}

	var coverURL string
	if in.Cover != nil {
		coverURL, err = s.media.Upload(ctx, in.Cover.Body, in.Cover.ContentType)
		if err != nil {
			return nil, fmt.Errorf("error uploading cover image: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		UserName:      strings.ToLower(strings.TrimSpace(in.UserName)),
		FullName:      strings.TrimSpace(in.FullName),
		PasswordHash:  string(hash),
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}

	repo := s.repomanager.Users(s.db)
	created, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return created.Sanitized(), nil
}

// Login verifies the password for the user found by email or username and,
// on success, returns the sanitized user and a new token pair. Unknown
// logins and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, login, password string) (*models.User, *TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByLogin(ctx, strings.ToLower(strings.TrimSpace(login)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	pair, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user.Sanitized(), pair, nil
}

// Logout revokes the user's live refresh token.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	return s.sessions.Revoke(ctx, userID)
}

// CurrentUser returns the sanitized record for userID.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// ChangePassword verifies the old password and stores a hash of the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: new password cannot be empty", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return common.ErrorUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	return repo.UpdatePassword(ctx, userID, string(hash))
}

// UpdateAccount changes the user's full name and email and returns the
// refreshed record.
func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.User, error) {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: full name and email are required", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.UpdateAccount(ctx, userID, strings.TrimSpace(fullName), strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, err
	}

	return s.CurrentUser(ctx, userID)
}

// UpdateAvatar uploads a new avatar and stores its URL.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, m Media) (*models.User, error) {
	return s.updateImage(ctx, userID, m, s.repomanager.Users(s.db).UpdateAvatar)
}

// UpdateCoverImage uploads a new cover image and stores its URL.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, m Media) (*models.User, error) {
	return s.updateImage(ctx, userID, m, s.repomanager.Users(s.db).UpdateCoverImage)
}

func (s *UserService) updateImage(ctx context.Context, userID string, m Media, store func(context.Context, string, string) error) (*models.User, error) {
	if m.Body == nil {
		return nil, fmt.Errorf("%w: image file is required", common.ErrorValidation)
	}

	url, err := s.media.Upload(ctx, m.Body, m.ContentType)
	if err != nil {
		return nil, fmt.Errorf("error uploading image: %w", err)
	}

	if err := store(ctx, userID, url); err != nil {
		return nil, err
	}

	return s.CurrentUser(ctx, userID)
}
