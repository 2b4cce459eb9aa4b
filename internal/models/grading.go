package models

import "time"

// AssessmentType is a named grading category with a percentage weight.
type AssessmentType struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	WeightPercent float64   `gorm:"type:double precision;not null" json:"weight_percent"`
	Description   string    `gorm:"type:text" json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AssessmentTypeUsage pairs an assessment type with the number of grade entries referencing it.
type AssessmentTypeUsage struct {
	AssessmentType
	UsageCount int64 `json:"usage_count"`
}

// GradeEntry is the single score recorded against a submission.
type GradeEntry struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	SubmissionID     uint           `gorm:"uniqueIndex;not null" json:"submission_id"`
	StudentID        uint           `gorm:"index:idx_grade_entries_key,priority:1;not null" json:"student_id"`
	SubjectID        uint           `gorm:"index:idx_grade_entries_key,priority:2;not null" json:"subject_id"`
	Semester         string         `gorm:"size:16;index:idx_grade_entries_key,priority:3;not null" json:"semester"`
	AssessmentTypeID uint           `gorm:"index;not null" json:"assessment_type_id"`
	Score            float64        `gorm:"type:double precision;not null" json:"score"`
	Comment          string         `gorm:"type:text" json:"comment"`
	GradedBy         uint           `gorm:"not null" json:"graded_by"`
	GradedAt         time.Time      `gorm:"not null" json:"graded_at"`
	AssessmentType   AssessmentType `json:"assessment_type"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// FinalGrade caches the weighted aggregate for a student, subject and semester.
type FinalGrade struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	StudentID  uint      `gorm:"uniqueIndex:idx_final_grades_key,priority:1;not null" json:"student_id"`
	SubjectID  uint      `gorm:"uniqueIndex:idx_final_grades_key,priority:2;not null" json:"subject_id"`
	Semester   string    `gorm:"size:16;uniqueIndex:idx_final_grades_key,priority:3;not null" json:"semester"`
	FinalScore float64   `gorm:"type:double precision;not null" json:"final_score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GradeKey identifies the aggregation bucket a grade entry contributes to.
type GradeKey struct {
	StudentID uint   `json:"student_id"`
	SubjectID uint   `json:"subject_id"`
	Semester  string `json:"semester"`
}
