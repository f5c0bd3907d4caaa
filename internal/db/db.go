package db

import (
	"log"

	"threadkit/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to the discussion mirror and migrates its table.
func Open(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	log.Println("Database connection established")

	if err := conn.AutoMigrate(&models.MirrorComment{}); err != nil {
		return nil, err
	}
	log.Println("Database migration completed")
	return conn, nil
}
