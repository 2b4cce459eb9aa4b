package models

import "time"

// Submission represents work delivered by a student for an assignment. A student has at
// most one submission per assignment.
type Submission struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AssignmentID   uint       `gorm:"uniqueIndex:idx_submissions_assignment_student,priority:1;not null" json:"assignment_id"`
	StudentID      uint       `gorm:"uniqueIndex:idx_submissions_assignment_student,priority:2;index;not null" json:"student_id"`
	SubmittedAt    time.Time  `gorm:"not null" json:"submitted_at"`
	FileURL        string     `gorm:"size:512" json:"file_url"`
	StudentComment string     `gorm:"type:text" json:"student_comment"`
	Status         string     `gorm:"size:32;not null;index" json:"status"`
	Assignment     Assignment `json:"assignment"`
	Student        Student    `json:"student"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

const (
	// SubmissionStatusSubmitted indicates the submission has been delivered but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates a grade entry exists for the submission.
	SubmissionStatusGraded = "graded"
)

// IsGraded reports whether the submission has been graded.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}
