// Package gorm provides gorm-backed database connections behind a dialector
// registry. Dialect packages register themselves from their provider files, so
// importing a dialect is enough to make its type available.
package gorm

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	dbconfig "github.com/tidewind/aircast/internal/adapter/database/config"
	coreConfig "github.com/tidewind/aircast/internal/config"
	"github.com/tidewind/aircast/internal/support/util/configbinder"
	"github.com/tidewind/aircast/internal/support/util/logger"
)

// DialectorFactory generates a gorm.Dialector from a dbconfig.DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory corresponding to the specified DB type.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// ConnectionString builds the driver connection string for a configuration.
func ConnectionString(cfg dbconfig.DatabaseConfig) (string, error) {
	switch cfg.Type {
	case "postgres":
		sslmode := cfg.Sslmode
		if sslmode == "" {
			sslmode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, sslmode), nil
	case "mysql":
		if cfg.Password == "" {
			return fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				cfg.User, cfg.Host, cfg.Port, cfg.Database), nil
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database), nil
	case "sqlite":
		return cfg.Database, nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open resolves the named entry under "adapters.database" in the application
// configuration and opens a gorm connection for it.
func Open(cfg *coreConfig.Config, name string) (*gorm.DB, dbconfig.DatabaseConfig, error) {
	dbCfg, err := decodeDatabaseConfig(cfg, name)
	if err != nil {
		return nil, dbCfg, err
	}

	factory, err := GetDialectorFactory(dbCfg.Type)
	if err != nil {
		return nil, dbCfg, fmt.Errorf("database connection '%s': %w", name, err)
	}
	dialector, err := factory(dbCfg)
	if err != nil {
		return nil, dbCfg, fmt.Errorf("failed to build dialector for '%s': %w", name, err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, dbCfg, fmt.Errorf("failed to open '%s' database connection '%s': %w", dbCfg.Type, name, err)
	}

	logger.Debugf("Opened '%s' database connection '%s'.", dbCfg.Type, name)
	return db, dbCfg, nil
}

// decodeDatabaseConfig extracts and decodes the named entry under
// "adapters.database" in the application configuration.
func decodeDatabaseConfig(cfg *coreConfig.Config, name string) (dbconfig.DatabaseConfig, error) {
	var dbCfg dbconfig.DatabaseConfig

	rawDatabase, ok := cfg.Aircast.AdapterConfigs["database"]
	if !ok {
		return dbCfg, fmt.Errorf("no 'database' section under adapters configuration")
	}
	databaseMap, ok := rawDatabase.(map[string]interface{})
	if !ok {
		return dbCfg, fmt.Errorf("invalid 'database' configuration format: expected map[string]interface{}")
	}
	namedConfig, ok := databaseMap[name]
	if !ok {
		return dbCfg, fmt.Errorf("database configuration for name '%s' not found", name)
	}

	properties, ok := namedConfig.(map[string]interface{})
	if !ok {
		return dbCfg, fmt.Errorf("invalid database configuration for '%s': expected map[string]interface{}", name)
	}
	if err := configbinder.BindProperties(properties, &dbCfg); err != nil {
		return dbCfg, fmt.Errorf("failed to decode database config for '%s': %w", name, err)
	}
	return dbCfg, nil
}
