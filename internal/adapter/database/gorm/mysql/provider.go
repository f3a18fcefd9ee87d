// Package mysql registers the mysql dialector with the gorm adapter registry.
package mysql

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	dbconfig "github.com/tidewind/aircast/internal/adapter/database/config"
	gormadapter "github.com/tidewind/aircast/internal/adapter/database/gorm"
)

func init() {
	gormadapter.RegisterDialector("mysql", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		dsn, err := gormadapter.ConnectionString(cfg)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	})
}
