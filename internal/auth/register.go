package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/internal/notifications"
	"github.com/asookemart/asooke-backend/internal/users"
	"github.com/asookemart/asooke-backend/internal/verification"
	pkgAuth "github.com/asookemart/asooke-backend/pkg/auth"
	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/security"
)

const (
	verificationSentMessage = "Verification email sent. Please check your inbox."
	magicLinkSentMessage    = "Login link sent. Please check your inbox."
)

// Register creates an inactive customer and emails the verification link.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*MessageResult, error) {
	dto := users.CreateUserDTO{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     trimmedPhone(req.Phone),
		Role:      enums.RoleCustomer,
	}
	if req.Password != "" {
		hash, err := security.HashPassword(req.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		dto.PasswordHash = &hash
	}

	user, err := s.createCustomer(ctx, dto)
	if err != nil {
		return nil, err
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}
	return &MessageResult{Message: verificationSentMessage, Email: user.Email, Created: true}, nil
}

// RequestMagicLink emails a sign-in link. Unknown emails are registered on the
// spot and receive the verification email instead.
func (s *service) RequestMagicLink(ctx context.Context, req MagicLinkRequest) (*MessageResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name and last_name are required to create an account")
		}
		created, err := s.createCustomer(ctx, users.CreateUserDTO{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     trimmedPhone(req.Phone),
			Role:      enums.RoleCustomer,
		})
		if err != nil {
			return nil, err
		}
		if err := s.sendVerification(ctx, created); err != nil {
			return nil, err
		}
		return &MessageResult{Message: verificationSentMessage, Email: created.Email, Created: true}, nil
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if err := s.sendMagicLink(ctx, user); err != nil {
		return nil, err
	}
	return &MessageResult{Message: magicLinkSentMessage, Email: user.Email}, nil
}

// ResendVerification re-sends either the magic link (is_login) or the
// verification email, depending on where the user got stuck.
func (s *service) ResendVerification(ctx context.Context, req ResendRequest) (*MessageResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if req.IsLogin {
		if !user.IsActive {
			return nil, ErrAccountInactive
		}
		if err := s.sendMagicLink(ctx, user); err != nil {
			return nil, err
		}
		return &MessageResult{Message: magicLinkSentMessage, Email: user.Email}, nil
	}

	if user.IsActive {
		return nil, ErrAlreadyVerified
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}
	return &MessageResult{Message: verificationSentMessage, Email: user.Email}, nil
}

// VerifyEmail checks the emailed code, activates the account and signs the user in.
func (s *service) VerifyEmail(ctx context.Context, userID uuid.UUID, token string) (*Session, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLink
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.IsActive {
		return nil, ErrAlreadyVerified
	}

	if err := s.codes.VerifyString(ctx, user.ID, token); err != nil {
		if errors.Is(err, verification.ErrNotIssued) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}
	if err := s.users.Activate(ctx, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate user")
	}
	user.IsActive = true

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.email_verified")
	}
	return s.startSession(ctx, user)
}

func (s *service) createCustomer(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user, err := s.users.Create(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrEmailRegistered
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return user, nil
}

func (s *service) sendVerification(ctx context.Context, user *models.User) error {
	code, err := s.codes.Issue(ctx, user.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue verification code")
	}
	link := s.app.APIURL(fmt.Sprintf("api/v1/auth/verify-email/%s/%06d/%s",
		user.ID, code, url.PathEscape(user.Email)))

	msg, err := notifications.VerificationMessage(user.Email, user.FirstName, link)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render verification email")
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send verification email")
	}
	return nil
}

func (s *service) sendMagicLink(ctx context.Context, user *models.User) error {
	token, err := pkgAuth.MintMagicLinkToken(s.jwtCfg, s.now().UTC(), s.magicCfg.TTL, user.ID, user.Email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint magic link")
	}
	msg, err := notifications.MagicLinkMessage(user.Email, user.FirstName, s.app.APIURL("api/v1/auth/magic-login/"+token))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render magic link email")
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send magic link email")
	}
	return nil
}

func trimmedPhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	v := strings.TrimSpace(*phone)
	if v == "" {
		return nil
	}
	return &v
}
