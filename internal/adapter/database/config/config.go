package config

// DatabaseConfig holds configuration for a single database connection.
type DatabaseConfig struct {
	Type     string `yaml:"type"`     // Database type ("sqlite", "mysql", "postgres").
	Host     string `yaml:"host"`     // Server host (unused for sqlite).
	Port     int    `yaml:"port"`     // Server port (unused for sqlite).
	Database string `yaml:"database"` // Database name, or file path for sqlite.
	User     string `yaml:"user"`     // Connection user.
	Password string `yaml:"password"` // Connection password.
	Sslmode  string `yaml:"sslmode"`  // SSL mode for postgres.
}
