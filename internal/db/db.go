package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sdgtrack/internal/config"
	"sdgtrack/internal/models"
	"sdgtrack/internal/user"
)

var DB *gorm.DB

func Init(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	log.Printf("Database connected and migrated")
	return nil
}

// Migrate applies the schema. Split out so store tests can run it against
// an in-memory sqlite database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&models.Goal{},
		&models.Project{},
		&models.Indicator{},
		&models.SubIndicator{},
		&models.GoalIndicator{},
		&models.GoalSubIndicator{},
		&models.ProjectIndicator{},
		&models.RequiredData{},
		&models.RequiredDataValue{},
		&models.ComputationRule{},
	)
}
