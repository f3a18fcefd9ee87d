// Package postgres registers the postgres dialector with the gorm adapter registry.
package postgres

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	dbconfig "github.com/tidewind/aircast/internal/adapter/database/config"
	gormadapter "github.com/tidewind/aircast/internal/adapter/database/gorm"
)

func init() {
	gormadapter.RegisterDialector("postgres", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		dsn, err := gormadapter.ConnectionString(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.Open(dsn), nil
	})
}
