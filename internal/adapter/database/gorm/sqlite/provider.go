// Package sqlite registers the sqlite dialector with the gorm adapter registry.
package sqlite

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbconfig "github.com/tidewind/aircast/internal/adapter/database/config"
	gormadapter "github.com/tidewind/aircast/internal/adapter/database/gorm"
)

func init() {
	gormadapter.RegisterDialector("sqlite", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		dsn, err := gormadapter.ConnectionString(cfg)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(dsn), nil
	})
}
