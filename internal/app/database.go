// Package app holds start-up wiring shared by the binaries under cmd/.
package app

import (
	"fmt"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/auth"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/config"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/database"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/utils"
)

// Tables is every model the binaries read or write.
func Tables() []interface{} {
	tables := []interface{}{&auth.Identity{}, &auth.UserProfile{}}
	tables = append(tables, models.Tables()...)
	return append(tables, &audit.AuditLog{}, &jobs.Job{})
}

// OpenDatabase connects using cfg. SQLite databases are migrated in place;
// PostgreSQL is expected to be migrated with cmd/migrate.
func OpenDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, database.Options{
		LogLevel: utils.GormLogLevel(cfg.Env),
	})
	if err != nil {
		return nil, err
	}

	if cfg.DBDriver == "sqlite" {
		if err := db.AutoMigrate(Tables()...); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}
	return db, nil
}

// AdminSeed builds the provisioning seed from configuration.
func AdminSeed(cfg *config.Config) auth.AdminSeed {
	return auth.AdminSeed{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		FullName: cfg.AdminFullName,
		Phone:    cfg.AdminPhone,
	}
}
