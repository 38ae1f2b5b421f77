package db

import (
	"sync"

	"github.com/convoy-cloud/convoy/internal/models"
	"github.com/convoy-cloud/convoy/pkg/env"
	"github.com/convoy-cloud/convoy/pkg/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	conn *gorm.DB
	mu   sync.Mutex
)

// Connection returns the shared gorm connection, opening it
// on first use according to the environment.
func Connection() *gorm.DB {
	mu.Lock()
	defer mu.Unlock()

	if conn != nil {
		return conn
	}

	var err error

	switch env.Variables().DatabaseType {
	case "postgres":
		conn, err = gorm.Open(
			postgres.Open(env.Variables().DatabaseDSN),
			&gorm.Config{},
		)
	default:
		conn, err = gorm.Open(
			sqlite.Open(env.Variables().DatabaseDSN),
			&gorm.Config{},
		)
	}

	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}

	return conn
}

// Migrate applies the schema for all persisted models.
func Migrate() error {
	return Connection().AutoMigrate(
		&models.Device{},
		&models.Schedule{},
	)
}
