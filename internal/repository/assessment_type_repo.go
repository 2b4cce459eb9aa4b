package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sekolah-api/internal/models"
)

// AssessmentTypeRepository persists the weighted grading categories.
type AssessmentTypeRepository interface {
	Create(ctx context.Context, assessmentType *models.AssessmentType) error
	Update(ctx context.Context, assessmentType *models.AssessmentType) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (models.AssessmentType, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	CountUsage(ctx context.Context, id uint) (int64, error)
	List(ctx context.Context) ([]models.AssessmentTypeUsage, error)
}

type assessmentTypeRepository struct {
	db *gorm.DB
}

// NewAssessmentTypeRepository constructs the assessment type repository.
func NewAssessmentTypeRepository(db *gorm.DB) AssessmentTypeRepository {
	return &assessmentTypeRepository{db: db}
}

func (r *assessmentTypeRepository) Create(ctx context.Context, assessmentType *models.AssessmentType) error {
	return r.db.WithContext(ctx).Create(assessmentType).Error
}

func (r *assessmentTypeRepository) Update(ctx context.Context, assessmentType *models.AssessmentType) error {
	result := r.db.WithContext(ctx).
		Model(&models.AssessmentType{}).
		Where("id = ?", assessmentType.ID).
		Updates(map[string]interface{}{
			"name":           assessmentType.Name,
			"weight_percent": assessmentType.WeightPercent,
			"description":    assessmentType.Description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an unused assessment type. The type row is locked before usage is
// counted: a grade inserted concurrently waits on its foreign key check and fails once the
// delete commits. A foreign key violation is reported as ErrInUse.
func (r *assessmentTypeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.AssessmentType
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&locked, id).Error; err != nil {
			return err
		}

		var usage int64
		if err := tx.Model(&models.GradeEntry{}).Where("assessment_type_id = ?", id).Count(&usage).Error; err != nil {
			return err
		}
		if usage > 0 {
			return ErrInUse
		}

		result := tx.Delete(&models.AssessmentType{}, id)
		if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
			return ErrInUse
		}
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *assessmentTypeRepository) GetByID(ctx context.Context, id uint) (models.AssessmentType, error) {
	var assessmentType models.AssessmentType
	if err := r.db.WithContext(ctx).First(&assessmentType, id).Error; err != nil {
		return models.AssessmentType{}, err
	}
	return assessmentType, nil
}

func (r *assessmentTypeRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AssessmentType{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *assessmentTypeRepository) CountUsage(ctx context.Context, id uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.GradeEntry{}).Where("assessment_type_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *assessmentTypeRepository) List(ctx context.Context) ([]models.AssessmentTypeUsage, error) {
	var rows []models.AssessmentTypeUsage
	err := r.db.WithContext(ctx).
		Table("assessment_types").
		Select("assessment_types.*, (SELECT COUNT(*) FROM grade_entries WHERE grade_entries.assessment_type_id = assessment_types.id) AS usage_count").
		Order("assessment_types.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
