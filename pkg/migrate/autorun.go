package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/logger"
)

// MaybeRunDev brings the schema up to date on boot, but only in dev with
// FEATURE_AUTO_MIGRATE set. Other environments run cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || client == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if cfg.DB.IsSQLite() {
		if err := ApplySQLite(client.DB().WithContext(ctx)); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
		logg.Info(ctx, "migrate.autorun sqlite schema applied")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	var report strings.Builder
	if err := Run(ctx, sqlDB, DefaultDir, "up", &report); err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "report", strings.TrimSpace(report.String())), "migrate.autorun goose up complete")
	return nil
}
