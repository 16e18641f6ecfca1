// Package auth owns sign-up, sign-in and session lifecycle: password login,
// emailed magic links, email verification and refresh token rotation.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/internal/users"
	pkgAuth "github.com/asookemart/asooke-backend/pkg/auth"
	"github.com/asookemart/asooke-backend/pkg/auth/session"
	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/mailer"
	"github.com/asookemart/asooke-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

var (
	ErrInvalidCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	ErrAccountInactive    = pkgerrors.New(pkgerrors.CodeValidation, "Account inactive")
	ErrAlreadyVerified    = pkgerrors.New(pkgerrors.CodeValidation, "Email is already verified.")
	ErrEmailRegistered    = pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	ErrUserNotFound       = pkgerrors.New(pkgerrors.CodeNotFound, "User with this email does not exist.")
	ErrInvalidLink        = pkgerrors.New(pkgerrors.CodeUnauthorized, "link is invalid or has expired")
	ErrInvalidSession     = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*MessageResult, error)
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	RequestMagicLink(ctx context.Context, req MagicLinkRequest) (*MessageResult, error)
	ResendVerification(ctx context.Context, req ResendRequest) (*MessageResult, error)
	VerifyEmail(ctx context.Context, userID uuid.UUID, token string) (*Session, error)
	MagicLogin(ctx context.Context, token string) (*Session, error)
	Refresh(ctx context.Context, req RefreshRequest) (*Session, error)
	Logout(ctx context.Context, accessToken string) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Activate(ctx context.Context, id uuid.UUID) error
}

type codeStore interface {
	Issue(ctx context.Context, userID uuid.UUID) (int, error)
	VerifyString(ctx context.Context, userID uuid.UUID, code string) error
}

type sessionManager interface {
	Generate(ctx context.Context, userID uuid.UUID, accessID string) (string, error)
	Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          userRepository
	Codes          codeStore
	SessionManager sessionManager
	Mailer         mailer.Sender
	App            config.AppConfig
	JWTConfig      config.JWTConfig
	MagicLink      config.MagicLinkConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	users       userRepository
	codes       codeStore
	session     sessionManager
	mailer      mailer.Sender
	app         config.AppConfig
	jwtCfg      config.JWTConfig
	magicCfg    config.MagicLinkConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Codes == nil {
		return nil, fmt.Errorf("verification store is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if params.MagicLink.TTL <= 0 {
		params.MagicLink.TTL = 10 * time.Minute
	}
	return &service{
		users:       params.Users,
		codes:       params.Codes,
		session:     params.SessionManager,
		mailer:      params.Mailer,
		app:         params.App,
		jwtCfg:      params.JWTConfig,
		magicCfg:    params.MagicLink,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, user)
}

func (s *service) MagicLogin(ctx context.Context, token string) (*Session, error) {
	claims, err := pkgAuth.ParseMagicLinkToken(s.jwtCfg, strings.TrimSpace(token))
	if err != nil {
		return nil, ErrInvalidLink
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLink
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	// the link is void once the account's address changes
	if !strings.EqualFold(user.Email, claims.Email) {
		return nil, ErrInvalidLink
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return s.startSession(ctx, user)
}

// Refresh rotates the refresh token bound to the (possibly expired) access token.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*Session, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(req.AccessToken))
	if err != nil {
		return nil, ErrInvalidSession
	}
	accessID, refreshToken, err := s.session.Rotate(ctx, claims.UserID, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, ErrInvalidSession
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		_ = s.session.Revoke(ctx, accessID)
		return nil, ErrInvalidSession
	}
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
		Group:        user.Role.Group(),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(accessToken))
	if err != nil {
		return ErrInvalidSession
	}
	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := security.VerifyPassword(password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// startSession records the login and mints an access token whose jti keys the refresh session.
func (s *service) startSession(ctx context.Context, user *models.User) (*Session, error) {
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, user.ID, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.login")
	}
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
		Group:        user.Role.Group(),
	}, nil
}
