// Package verification issues and checks the 6-digit codes shared by email
// verification and delivery confirmation. Each user has one row; issuing a new
// code overwrites the previous one.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/asookemart/asooke-backend/pkg/db/models"
	pkgerrors "github.com/asookemart/asooke-backend/pkg/errors"
	"github.com/asookemart/asooke-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// Window is how long an issued code stays valid.
	Window = 10 * time.Minute
	// MaxAttempts is how many wrong guesses burn an issued code.
	MaxAttempts = 5
	codeDigits  = 6
)

var (
	ErrExpired   = pkgerrors.New(pkgerrors.CodeOTPExpired, "otp expired")
	ErrMismatch  = pkgerrors.New(pkgerrors.CodeOTPMismatch, "invalid otp")
	ErrNotIssued = pkgerrors.New(pkgerrors.CodeNotFound, "no code has been issued")
	ErrUsed      = pkgerrors.New(pkgerrors.CodeOTPMismatch, "code has already been used, request a new one")
	ErrLocked    = pkgerrors.New(pkgerrors.CodeRateLimit, "too many wrong codes, request a new one")
)

// Store persists verification codes.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore builds a store. now defaults to time.Now.
func NewStore(db *gorm.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}
}

// Issue generates a fresh code for userID, replacing any earlier one.
func (s *Store) Issue(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("user id is required")
	}
	code, err := security.GenerateNumericCode(codeDigits)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	row := models.UserVerification{
		ID:             uuid.New(),
		UserID:         userID,
		Token:          strconv.Itoa(code),
		IssuedAt:       now,
		IsVerified:     false,
		FailedAttempts: 0,
		UpdatedAt:      now,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "issued_at", "is_verified", "failed_attempts", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

// Verify checks code against the latest issue for userID. Codes older than
// Window are rejected even when they match. A match consumes the code; every
// miss counts against it and MaxAttempts misses lock it until the next Issue.
func (s *Store) Verify(ctx context.Context, userID uuid.UUID, code int) error {
	var row models.UserVerification
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotIssued
	}
	if err != nil {
		return fmt.Errorf("load verification code: %w", err)
	}

	switch {
	case row.IsVerified:
		return ErrUsed
	case s.now().Sub(row.IssuedAt) > Window:
		return ErrExpired
	case row.FailedAttempts >= MaxAttempts:
		return ErrLocked
	}

	stored, err := strconv.Atoi(strings.TrimSpace(row.Token))
	if err != nil || stored != code {
		return s.recordMiss(ctx, row)
	}

	// the token and flag guards make a concurrent second match lose
	res := s.db.WithContext(ctx).
		Model(&models.UserVerification{}).
		Where("id = ? AND token = ? AND is_verified = ?", row.ID, row.Token, false).
		Updates(map[string]any{"is_verified": true, "updated_at": s.now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("consume verification code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUsed
	}
	return nil
}

func (s *Store) recordMiss(ctx context.Context, row models.UserVerification) error {
	res := s.db.WithContext(ctx).
		Model(&models.UserVerification{}).
		Where("id = ? AND token = ? AND failed_attempts < ?", row.ID, row.Token, MaxAttempts).
		Updates(map[string]any{
			"failed_attempts": gorm.Expr("failed_attempts + 1"),
			"updated_at":      s.now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("record failed attempt: %w", res.Error)
	}
	if res.RowsAffected == 0 || row.FailedAttempts+1 >= MaxAttempts {
		return ErrLocked
	}
	return ErrMismatch
}

// VerifyString parses a code from a path or form value first.
func (s *Store) VerifyString(ctx context.Context, userID uuid.UUID, code string) error {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return ErrMismatch
	}
	return s.Verify(ctx, userID, n)
}

// PurgeUnverified deletes codes issued before cutoff that were never used.
func (s *Store) PurgeUnverified(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("is_verified = ? AND issued_at < ?", false, cutoff.UTC()).
		Delete(&models.UserVerification{})
	return res.RowsAffected, res.Error
}

// VerifiedSince reports whether the latest code for userID was issued at or
// after since and has been verified.
func (s *Store) VerifiedSince(ctx context.Context, userID uuid.UUID, since time.Time) (bool, error) {
	var row models.UserVerification
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load verification code: %w", err)
	}
	return row.IsVerified && !row.IssuedAt.Before(since), nil
}
