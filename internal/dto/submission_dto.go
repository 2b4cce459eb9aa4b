package dto

import (
	"time"

	"github.com/noah-isme/sekolah-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for submitting work.
type SubmissionCreateRequest struct {
	AssignmentID   uint   `form:"assignment_id" json:"assignment_id" validate:"required,gt=0"`
	StudentComment string `form:"student_comment" json:"student_comment" validate:"omitempty,max=2000"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=submitted graded"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID             uint           `json:"id"`
	AssignmentID   uint           `json:"assignment_id"`
	StudentID      uint           `json:"student_id"`
	SubmittedAt    time.Time      `json:"submitted_at"`
	FileURL        string         `json:"file_url"`
	StudentComment string         `json:"student_comment"`
	Status         string         `json:"status"`
	Assignment     AssignmentLite `json:"assignment"`
	Student        StudentLite    `json:"student"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Subject  string    `json:"subject"`
	Semester string    `json:"semester"`
	DueDate  time.Time `json:"due_date"`
}

// StudentLite summarizes a student in submission responses.
type StudentLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	NIS  string `json:"nis"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:             model.ID,
		AssignmentID:   model.AssignmentID,
		StudentID:      model.StudentID,
		SubmittedAt:    model.SubmittedAt,
		FileURL:        model.FileURL,
		StudentComment: model.StudentComment,
		Status:         model.Status,
		Assignment: AssignmentLite{
			ID:       model.Assignment.ID,
			Title:    model.Assignment.Title,
			Subject:  model.Assignment.Schedule.Subject.Name,
			Semester: model.Assignment.Schedule.Semester,
			DueDate:  model.Assignment.DueDate,
		},
		Student: StudentLite{
			ID:   model.Student.ID,
			Name: model.Student.User.Name,
			NIS:  model.Student.NIS,
		},
		UpdatedAt: model.UpdatedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
