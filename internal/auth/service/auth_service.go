package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"article-platform/backend/internal/events"
	"article-platform/backend/internal/platform/validation"
	"article-platform/backend/internal/security"
	sessiondomain "article-platform/backend/internal/session/domain"
	userdomain "article-platform/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handler maps them to HTTP statuses.
var (
	ErrLoginTaken         = errors.New("login already registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found or revoked")
)

// TokenPair holds the outcome of Login and Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByLogin(ctx context.Context, login string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByLoginOrEmail(ctx context.Context, loginOrEmail string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByDeviceAndIssuedAt(ctx context.Context, deviceID string, issuedAt time.Time) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Rotate(ctx context.Context, userID, deviceID string, prevIssuedAt time.Time, s *sessiondomain.Session) (bool, error)
	Delete(ctx context.Context, userID, deviceID string, issuedAt time.Time) (bool, error)
}

// AuthService implements registration, password login, refresh-token rotation
// and logout. Each login creates a fresh device-bound session; the session row
// always records the issued-at of the one refresh token it will accept next.
type AuthService struct {
	userRepo    UserRepo
	sessionRepo SessionRepo
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	refreshTTL  time.Duration
	publisher   events.Publisher
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	userRepo UserRepo,
	sessionRepo SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	refreshTTL time.Duration,
	publisher events.Publisher,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		tokens:      tokens,
		refreshTTL:  refreshTTL,
		publisher:   publisher,
	}
}

// Register validates the input, rejects duplicate logins and emails, and
// creates the user. Validation failures come back as validation.Errors so the
// handler can report every failing field.
func (s *AuthService) Register(ctx context.Context, login, email, password string) (string, error) {
	login = strings.TrimSpace(login)
	email = strings.TrimSpace(strings.ToLower(email))

	var verrs validation.Errors
	if err := userdomain.ValidateLogin(login); err != nil {
		verrs = append(verrs, &validation.FieldError{Field: "login", Message: err.Error()})
	}
	if err := userdomain.ValidateEmail(email); err != nil {
		verrs = append(verrs, &validation.FieldError{Field: "email", Message: err.Error()})
	}
	if err := userdomain.ValidatePassword(password); err != nil {
		verrs = append(verrs, &validation.FieldError{Field: "password", Message: err.Error()})
	}
	if len(verrs) > 0 {
		return "", verrs
	}

	if existing, err := s.userRepo.GetByLogin(ctx, login); err != nil {
		return "", err
	} else if existing != nil {
		return "", ErrLoginTaken
	}
	if existing, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return "", err
	} else if existing != nil {
		return "", ErrEmailTaken
	}

	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return "", err
	}
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Login:        login,
		Email:        email,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", err
	}
	s.publish(ctx, events.UserRegistered, map[string]string{"userId": user.ID, "login": user.Login})
	return user.ID, nil
}

// CheckCredentials resolves loginOrEmail to a user and verifies the password.
// Any mismatch, including an unknown user, yields ErrInvalidCredentials with
// no hint of which part failed.
func (s *AuthService) CheckCredentials(ctx context.Context, loginOrEmail, password string) (*userdomain.User, error) {
	loginOrEmail = strings.TrimSpace(loginOrEmail)
	if loginOrEmail == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userRepo.GetByLoginOrEmail(ctx, loginOrEmail)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and opens a new device-bound session. The session row
// is keyed by the refresh token's issued-at; if the row cannot be written the
// login fails even though the credentials were good, because the token just
// issued would never be refreshable.
func (s *AuthService) Login(ctx context.Context, loginOrEmail, password, ip, deviceName string) (*TokenPair, error) {
	user, err := s.CheckCredentials(ctx, loginOrEmail, password)
	if err != nil {
		return nil, err
	}

	deviceID := uuid.New().String()
	refreshToken, issuedAt, err := s.tokens.IssueRefresh(user.ID, deviceID)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}

	sess := &sessiondomain.Session{
		ID:               uuid.New().String(),
		UserID:           user.ID,
		DeviceID:         deviceID,
		DeviceName:       deviceName,
		IP:               ip,
		LastActiveAt:     issuedAt,
		RefreshIssuedAt:  issuedAt,
		RefreshExpiresAt: issuedAt.Add(s.refreshTTL),
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh rotates the refresh token. The presented token must decode cleanly
// and its (device, issued-at) pair must still name the live session row; the
// rotation itself is a conditional update on the old issued-at, so of two
// concurrent refreshes with the same token exactly one wins.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ip, deviceName string) (*TokenPair, error) {
	info, err := s.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionRepo.GetByDeviceAndIssuedAt(ctx, info.DeviceID, info.IssuedAt)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != info.UserID {
		return nil, ErrSessionNotFound
	}

	newRefresh, newIssuedAt, err := s.tokens.IssueRefresh(info.UserID, info.DeviceID)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.tokens.IssueAccess(info.UserID)
	if err != nil {
		return nil, err
	}

	updated := *sess
	updated.IP = ip
	if deviceName != "" {
		updated.DeviceName = deviceName
	}
	updated.LastActiveAt = newIssuedAt
	updated.RefreshIssuedAt = newIssuedAt
	updated.RefreshExpiresAt = newIssuedAt.Add(s.refreshTTL)

	ok, err := s.sessionRepo.Rotate(ctx, info.UserID, info.DeviceID, info.IssuedAt, &updated)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Logout revokes the session the refresh token belongs to by deleting its
// row. A token that was already rotated or logged out no longer names a row,
// so a second logout with the same token fails.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	info, err := s.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		return err
	}
	ok, err := s.sessionRepo.Delete(ctx, info.UserID, info.DeviceID, info.IssuedAt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	s.publish(ctx, events.SessionRevoked, map[string]string{"userId": info.UserID, "deviceId": info.DeviceID})
	return nil
}

// VerifyRefresh decodes the token and confirms its session row still exists,
// without rotating. Used by the refresh-token middleware.
func (s *AuthService) VerifyRefresh(ctx context.Context, refreshToken string) (*security.RefreshInfo, error) {
	info, err := s.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessionRepo.GetByDeviceAndIssuedAt(ctx, info.DeviceID, info.IssuedAt)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != info.UserID {
		return nil, ErrSessionNotFound
	}
	return info, nil
}

func (s *AuthService) publish(ctx context.Context, key string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		log.Err(err).Str("routing_key", key).Msg("event publish failed")
	}
}
