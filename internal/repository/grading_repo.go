package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/sekolah-api/internal/grading"
	"github.com/noah-isme/sekolah-api/internal/models"
)

// ErrNoGradeEntries is returned when a final grade is requested for a key without entries.
var ErrNoGradeEntries = errors.New("no grade entries for key")

// RecordGradeInput carries a validated, authorized grading action.
type RecordGradeInput struct {
	SubmissionID     uint
	AssessmentTypeID uint
	Score            float64
	Comment          string
	GradedBy         uint
	GradedAt         time.Time
}

// RecordGradeResult describes the rows written by RecordGrade.
type RecordGradeResult struct {
	Entry      models.GradeEntry
	FinalGrade models.FinalGrade
	Created    bool
}

// GradingRepository owns the grade ledger and the cached final grades.
type GradingRepository interface {
	RecordGrade(ctx context.Context, input RecordGradeInput) (RecordGradeResult, error)
	KeyForSubmission(ctx context.Context, submissionID uint) (models.GradeKey, error)
	WeightedScores(ctx context.Context, key models.GradeKey) ([]grading.WeightedScore, error)
	GetFinalGrade(ctx context.Context, key models.GradeKey) (models.FinalGrade, error)
	GetEntryBySubmission(ctx context.Context, submissionID uint) (models.GradeEntry, error)
}

type gradingRepository struct {
	db *gorm.DB
}

// NewGradingRepository constructs the grading repository.
func NewGradingRepository(db *gorm.DB) GradingRepository {
	return &gradingRepository{db: db}
}

// RecordGrade upserts the grade entry of a submission, marks the submission graded and
// recomputes the final grade of the affected key. All writes share one transaction.
func (r *gradingRepository) RecordGrade(ctx context.Context, input RecordGradeInput) (RecordGradeResult, error) {
	var result RecordGradeResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "student_id", "assignment_id", "status").
			First(&submission, input.SubmissionID).Error; err != nil {
			return err
		}

		// Grades of one student serialise on the student row. The lock is taken before the
		// ledger is touched, so the recompute below sees every committed entry of the key
		// even while no final grade row exists yet.
		if err := lockStudent(tx, submission.StudentID); err != nil {
			return err
		}

		var entry models.GradeEntry
		lookup := tx.Where("submission_id = ?", input.SubmissionID).Limit(1).Find(&entry)
		if lookup.Error != nil {
			return lookup.Error
		}

		if lookup.RowsAffected == 0 {
			key, err := keyForSubmission(tx, input.SubmissionID)
			if err != nil {
				return err
			}
			entry = models.GradeEntry{
				SubmissionID:     input.SubmissionID,
				StudentID:        key.StudentID,
				SubjectID:        key.SubjectID,
				Semester:         key.Semester,
				AssessmentTypeID: input.AssessmentTypeID,
				Score:            input.Score,
				Comment:          input.Comment,
				GradedBy:         input.GradedBy,
				GradedAt:         input.GradedAt,
			}
			if err := tx.Omit("AssessmentType").Create(&entry).Error; err != nil {
				return err
			}
			result.Created = true
		} else {
			if err := tx.Model(&models.GradeEntry{}).
				Where("id = ?", entry.ID).
				Updates(map[string]interface{}{
					"assessment_type_id": input.AssessmentTypeID,
					"score":              input.Score,
					"comment":            input.Comment,
					"graded_by":          input.GradedBy,
					"graded_at":          input.GradedAt,
				}).Error; err != nil {
				return err
			}
			entry.AssessmentTypeID = input.AssessmentTypeID
			entry.Score = input.Score
			entry.Comment = input.Comment
			entry.GradedBy = input.GradedBy
			entry.GradedAt = input.GradedAt
		}

		if err := tx.Model(&models.Submission{}).
			Where("id = ?", submission.ID).
			Update("status", models.SubmissionStatusGraded).Error; err != nil {
			return err
		}

		key := models.GradeKey{StudentID: entry.StudentID, SubjectID: entry.SubjectID, Semester: entry.Semester}
		finalGrade, err := upsertFinalGrade(tx, key)
		if err != nil {
			return err
		}

		result.Entry = entry
		result.FinalGrade = finalGrade
		return nil
	})
	if err != nil {
		return RecordGradeResult{}, err
	}

	return result, nil
}

func (r *gradingRepository) KeyForSubmission(ctx context.Context, submissionID uint) (models.GradeKey, error) {
	return keyForSubmission(r.db.WithContext(ctx), submissionID)
}

func (r *gradingRepository) WeightedScores(ctx context.Context, key models.GradeKey) ([]grading.WeightedScore, error) {
	return weightedScores(r.db.WithContext(ctx), key)
}

func (r *gradingRepository) GetFinalGrade(ctx context.Context, key models.GradeKey) (models.FinalGrade, error) {
	var finalGrade models.FinalGrade
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject_id = ? AND semester = ?", key.StudentID, key.SubjectID, key.Semester).
		First(&finalGrade).Error; err != nil {
		return models.FinalGrade{}, err
	}
	return finalGrade, nil
}

func (r *gradingRepository) GetEntryBySubmission(ctx context.Context, submissionID uint) (models.GradeEntry, error) {
	var entry models.GradeEntry
	if err := r.db.WithContext(ctx).
		Preload("AssessmentType").
		Where("submission_id = ?", submissionID).
		First(&entry).Error; err != nil {
		return models.GradeEntry{}, err
	}
	return entry, nil
}

// keyForSubmission derives student, subject and semester through the assignment's schedule.
func keyForSubmission(db *gorm.DB, submissionID uint) (models.GradeKey, error) {
	var key models.GradeKey
	result := db.Table("submissions").
		Select("submissions.student_id AS student_id, schedules.subject_id AS subject_id, schedules.semester AS semester").
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Joins("JOIN schedules ON schedules.id = assignments.schedule_id").
		Where("submissions.id = ?", submissionID).
		Limit(1).
		Scan(&key)
	if result.Error != nil {
		return models.GradeKey{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.GradeKey{}, gorm.ErrRecordNotFound
	}
	return key, nil
}

// weightedScores reads the ledger for a key in entry order so repeated sums are identical.
func weightedScores(db *gorm.DB, key models.GradeKey) ([]grading.WeightedScore, error) {
	var rows []grading.WeightedScore
	err := db.Table("grade_entries").
		Select("grade_entries.score AS score, assessment_types.weight_percent AS weight_percent").
		Joins("JOIN assessment_types ON assessment_types.id = grade_entries.assessment_type_id").
		Where("grade_entries.student_id = ?", key.StudentID).
		Where("grade_entries.subject_id = ?", key.SubjectID).
		Where("grade_entries.semester = ?", key.Semester).
		Order("grade_entries.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func lockStudent(tx *gorm.DB, studentID uint) error {
	var student models.Student
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&student, studentID).Error
}

// upsertFinalGrade recomputes the key from the ledger. Callers must hold the student lock.
func upsertFinalGrade(tx *gorm.DB, key models.GradeKey) (models.FinalGrade, error) {
	scores, err := weightedScores(tx, key)
	if err != nil {
		return models.FinalGrade{}, err
	}

	finalScore, ok := grading.FinalScore(scores)
	if !ok {
		return models.FinalGrade{}, ErrNoGradeEntries
	}

	finalGrade := models.FinalGrade{
		StudentID:  key.StudentID,
		SubjectID:  key.SubjectID,
		Semester:   key.Semester,
		FinalScore: finalScore,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "subject_id"}, {Name: "semester"}},
		DoUpdates: clause.AssignmentColumns([]string{"final_score", "updated_at"}),
	}).Create(&finalGrade).Error; err != nil {
		return models.FinalGrade{}, err
	}

	var stored models.FinalGrade
	if err := tx.Where("student_id = ? AND subject_id = ? AND semester = ?", key.StudentID, key.SubjectID, key.Semester).
		First(&stored).Error; err != nil {
		return models.FinalGrade{}, err
	}
	return stored, nil
}
