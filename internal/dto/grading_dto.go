package dto

import (
	"time"

	"github.com/noah-isme/sekolah-api/internal/models"
)

// GradeSubmissionRequest is the typed input of a grading action.
type GradeSubmissionRequest struct {
	AssessmentTypeID uint     `json:"assessment_type_id" validate:"required,gt=0"`
	Score            *float64 `json:"score" validate:"required,score"`
	Comment          string   `json:"comment" validate:"omitempty,max=2000"`
}

// GradeEntryResponse serializes the grade recorded against a submission.
type GradeEntryResponse struct {
	ID               uint      `json:"id"`
	SubmissionID     uint      `json:"submission_id"`
	StudentID        uint      `json:"student_id"`
	SubjectID        uint      `json:"subject_id"`
	Semester         string    `json:"semester"`
	AssessmentTypeID uint      `json:"assessment_type_id"`
	Score            float64   `json:"score"`
	Comment          string    `json:"comment"`
	GradedBy         uint      `json:"graded_by"`
	GradedAt         time.Time `json:"graded_at"`
}

// FinalGradeResponse serializes a cached final grade.
type FinalGradeResponse struct {
	StudentID  uint      `json:"student_id"`
	SubjectID  uint      `json:"subject_id"`
	Semester   string    `json:"semester"`
	FinalScore float64   `json:"final_score"`
	Band       string    `json:"band"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GradeSubmissionResponse is returned after a grading action commits.
type GradeSubmissionResponse struct {
	Entry      GradeEntryResponse `json:"entry"`
	FinalGrade FinalGradeResponse `json:"final_grade"`
	Created    bool               `json:"created"`
}

// FinalGradeVerifyRequest identifies the final grade to verify.
type FinalGradeVerifyRequest struct {
	StudentID uint   `query:"student_id" validate:"required,gt=0"`
	SubjectID uint   `query:"subject_id" validate:"required,gt=0"`
	Semester  string `query:"semester" validate:"required,max=16"`
}

// FinalGradeVerification compares the cached final grade with a fresh recomputation.
type FinalGradeVerification struct {
	StudentID     uint     `json:"student_id"`
	SubjectID     uint     `json:"subject_id"`
	Semester      string   `json:"semester"`
	EntryCount    int      `json:"entry_count"`
	StoredScore   *float64 `json:"stored_score"`
	ComputedScore *float64 `json:"computed_score"`
	Consistent    bool     `json:"consistent"`
}

// NewGradeEntryResponse converts a model into a DTO.
func NewGradeEntryResponse(model models.GradeEntry) GradeEntryResponse {
	return GradeEntryResponse{
		ID:               model.ID,
		SubmissionID:     model.SubmissionID,
		StudentID:        model.StudentID,
		SubjectID:        model.SubjectID,
		Semester:         model.Semester,
		AssessmentTypeID: model.AssessmentTypeID,
		Score:            model.Score,
		Comment:          model.Comment,
		GradedBy:         model.GradedBy,
		GradedAt:         model.GradedAt,
	}
}

// NewFinalGradeResponse converts a model into a DTO. The band is supplied by the caller.
func NewFinalGradeResponse(model models.FinalGrade, band string) FinalGradeResponse {
	return FinalGradeResponse{
		StudentID:  model.StudentID,
		SubjectID:  model.SubjectID,
		Semester:   model.Semester,
		FinalScore: model.FinalScore,
		Band:       band,
		UpdatedAt:  model.UpdatedAt,
	}
}
