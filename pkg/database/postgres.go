package database

import (
	"fmt"
	"time"

	"justEatMore/domain"
	"justEatMore/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func InitPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Database.Host,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.Port,
		cfg.Database.SSLMode,
	)

	logLevel := gormlogger.Warn
	if cfg.App.Environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Item{},
		&domain.BundleType{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.Payment{},
		&domain.User{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// AutoMigrate does not carry CHECK constraints over from struct tags.
	return db.Exec(`DO $$ BEGIN
		ALTER TABLE items ADD CONSTRAINT items_stock_non_negative CHECK (current_stock >= 0);
	EXCEPTION WHEN duplicate_object THEN NULL; END $$;`).Error
}
