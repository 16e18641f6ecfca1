package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/asookemart/asooke-backend/pkg/logger"
)

const (
	defaultAbandonedCartDays = 30
	// verification codes live for ten minutes; a day of slack keeps recent
	// rows around for support lookups.
	unverifiedCodeRetention = 24 * time.Hour
)

type idleCartPurger interface {
	PurgeIdle(ctx context.Context, cutoff time.Time) (int64, error)
}

type unverifiedCodePurger interface {
	PurgeUnverified(ctx context.Context, cutoff time.Time) (int64, error)
}

type AbandonedCartJobParams struct {
	Logger  *logger.Logger
	Carts   idleCartPurger
	MaxIdle int
}

// NewAbandonedCartJob deletes carts nobody has touched for MaxIdle days.
func NewAbandonedCartJob(params AbandonedCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	days := params.MaxIdle
	if days <= 0 {
		days = defaultAbandonedCartDays
	}
	return &abandonedCartJob{logg: params.Logger, carts: params.Carts, days: days, now: time.Now}, nil
}

type abandonedCartJob struct {
	logg  *logger.Logger
	carts idleCartPurger
	days  int
	now   func() time.Time
}

func (j *abandonedCartJob) Name() string { return "abandoned-cart-purge" }

func (j *abandonedCartJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)
	purged, err := j.carts.PurgeIdle(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge idle carts: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"idle_days":    j.days,
		"carts_purged": purged,
	}), "abandoned carts purged")
	return nil
}

type VerificationPurgeJobParams struct {
	Logger *logger.Logger
	Codes  unverifiedCodePurger
}

// NewVerificationPurgeJob drops verification codes that were never used.
func NewVerificationPurgeJob(params VerificationPurgeJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Codes == nil {
		return nil, fmt.Errorf("verification store required")
	}
	return &verificationPurgeJob{logg: params.Logger, codes: params.Codes, now: time.Now}, nil
}

type verificationPurgeJob struct {
	logg  *logger.Logger
	codes unverifiedCodePurger
	now   func() time.Time
}

func (j *verificationPurgeJob) Name() string { return "verification-purge" }

func (j *verificationPurgeJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-unverifiedCodeRetention)
	deleted, err := j.codes.PurgeUnverified(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge unverified codes: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "stale verification codes purged")
	return nil
}
