package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/models"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Classroom{},
		&models.Subject{},
		&models.Teacher{},
		&models.Student{},
		&models.Schedule{},
		&models.Assignment{},
		&models.Submission{},
		&models.AssessmentType{},
		&models.GradeEntry{},
		&models.FinalGrade{},
		&models.ActivityLog{},
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
