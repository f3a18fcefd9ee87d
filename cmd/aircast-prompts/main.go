package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "embed"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tidewind/aircast/internal/app"
	"github.com/tidewind/aircast/internal/support/util/logger"

	// Storage backends register themselves on import.
	_ "github.com/tidewind/aircast/internal/adapter/storage/gcs"
	_ "github.com/tidewind/aircast/internal/adapter/storage/local"
	_ "github.com/tidewind/aircast/internal/adapter/storage/s3"

	// Database dialects register themselves on import.
	_ "github.com/tidewind/aircast/internal/adapter/database/gorm/mysql"
	_ "github.com/tidewind/aircast/internal/adapter/database/gorm/postgres"
	_ "github.com/tidewind/aircast/internal/adapter/database/gorm/sqlite"
)

// embeddedConfig embeds the content of the application's YAML configuration file.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handling for graceful shutdown (e.g., Ctrl+C)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the run...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	app.RunPromptApplication(ctx, envFilePath, embeddedConfig)
	os.Exit(0)
}
