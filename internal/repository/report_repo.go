package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/models"
)

// FinalGradeRow is a cached final grade joined with its subject.
type FinalGradeRow struct {
	SubjectID   uint
	SubjectName string
	Semester    string
	FinalScore  float64
	UpdatedAt   time.Time
}

// GradeDetailRow is a grade entry joined with the data a report card displays.
type GradeDetailRow struct {
	GradeEntryID       uint
	SubmissionID       uint
	SubjectID          uint
	SubjectName        string
	AssignmentTitle    string
	AssessmentTypeID   uint
	AssessmentTypeName string
	WeightPercent      float64
	Score              float64
	Comment            string
	GradedBy           uint
	GraderName         string
	GradedAt           time.Time
}

// ReportRepository provides the read-only queries behind grade reports.
type ReportRepository interface {
	GetStudent(ctx context.Context, studentID uint) (models.Student, error)
	ListSemesters(ctx context.Context, studentID uint) ([]string, error)
	ListFinalGrades(ctx context.Context, studentID uint, semester string) ([]FinalGradeRow, error)
	ListGradeDetails(ctx context.Context, studentID uint, semester string) ([]GradeDetailRow, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository constructs the report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetStudent(ctx context.Context, studentID uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Classroom").
		First(&student, studentID).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *reportRepository) ListSemesters(ctx context.Context, studentID uint) ([]string, error) {
	semesters := make([]string, 0)
	if err := r.db.WithContext(ctx).
		Model(&models.GradeEntry{}).
		Where("student_id = ?", studentID).
		Distinct("semester").
		Order("semester DESC").
		Pluck("semester", &semesters).Error; err != nil {
		return nil, err
	}
	return semesters, nil
}

func (r *reportRepository) ListFinalGrades(ctx context.Context, studentID uint, semester string) ([]FinalGradeRow, error) {
	rows := make([]FinalGradeRow, 0)
	err := r.db.WithContext(ctx).
		Table("final_grades").
		Select("final_grades.subject_id AS subject_id, subjects.name AS subject_name, final_grades.semester AS semester, final_grades.final_score AS final_score, final_grades.updated_at AS updated_at").
		Joins("JOIN subjects ON subjects.id = final_grades.subject_id").
		Where("final_grades.student_id = ?", studentID).
		Where("final_grades.semester = ?", semester).
		Order("subjects.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reportRepository) ListGradeDetails(ctx context.Context, studentID uint, semester string) ([]GradeDetailRow, error) {
	rows := make([]GradeDetailRow, 0)
	err := r.db.WithContext(ctx).
		Table("grade_entries").
		Select(`grade_entries.id AS grade_entry_id,
			grade_entries.submission_id AS submission_id,
			grade_entries.subject_id AS subject_id,
			subjects.name AS subject_name,
			assignments.title AS assignment_title,
			grade_entries.assessment_type_id AS assessment_type_id,
			assessment_types.name AS assessment_type_name,
			assessment_types.weight_percent AS weight_percent,
			grade_entries.score AS score,
			grade_entries.comment AS comment,
			grade_entries.graded_by AS graded_by,
			COALESCE(users.name, '') AS grader_name,
			grade_entries.graded_at AS graded_at`).
		Joins("JOIN subjects ON subjects.id = grade_entries.subject_id").
		Joins("JOIN assessment_types ON assessment_types.id = grade_entries.assessment_type_id").
		Joins("JOIN submissions ON submissions.id = grade_entries.submission_id").
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Joins("LEFT JOIN users ON users.id = grade_entries.graded_by").
		Where("grade_entries.student_id = ?", studentID).
		Where("grade_entries.semester = ?", semester).
		Order("subjects.name ASC").
		Order("assessment_types.name ASC").
		Order("grade_entries.graded_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
