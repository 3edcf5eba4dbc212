package db

import (
	"fmt"

	"blogify/internal/config"
	"blogify/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to Postgres, runs migrations and seeds the category table.
// The returned handle is the only shared mutable resource in the process and
// is passed explicitly to every component that needs it.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	logger.Info("Database migration completed")

	seedCategories(conn, logger)
	return conn, nil
}

// Migrate applies the schema. Split out so tests can run it against SQLite.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
		&models.Bookmark{},
		&models.VerificationToken{},
		&models.PasswordResetToken{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func seedCategories(conn *gorm.DB, logger *zap.Logger) {
	var count int64
	conn.Model(&models.Category{}).Count(&count)
	if count > 0 {
		return
	}

	categories := []models.Category{
		{Name: "Technology", Slug: "technology", Description: "Software, hardware and everything in between"},
		{Name: "Design", Slug: "design", Description: "Visual design, UX and typography"},
		{Name: "Writing", Slug: "writing", Description: "The craft of writing itself"},
		{Name: "Life", Slug: "life", Description: "Everything else worth sharing"},
	}

	for _, category := range categories {
		if err := conn.Create(&category).Error; err != nil {
			logger.Warn("Failed to seed category", zap.String("name", category.Name), zap.Error(err))
		}
	}
	logger.Info("Initial categories created")
}
