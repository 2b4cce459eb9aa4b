package dto

import (
	"time"

	"github.com/noah-isme/sekolah-api/internal/models"
)

// AssessmentTypeRequest is the payload used to create or replace an assessment type.
type AssessmentTypeRequest struct {
	Name          string  `json:"name" validate:"required,max=128"`
	WeightPercent float64 `json:"weight_percent" validate:"weight"`
	Description   string  `json:"description" validate:"omitempty,max=2000"`
}

// AssessmentTypeResponse serializes an assessment type with its usage count.
type AssessmentTypeResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	WeightPercent float64   `json:"weight_percent"`
	Description   string    `json:"description"`
	UsageCount    int64     `json:"usage_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewAssessmentTypeResponse converts a model into a DTO.
func NewAssessmentTypeResponse(model models.AssessmentType, usage int64) AssessmentTypeResponse {
	return AssessmentTypeResponse{
		ID:            model.ID,
		Name:          model.Name,
		WeightPercent: model.WeightPercent,
		Description:   model.Description,
		UsageCount:    usage,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewAssessmentTypeResponseSlice converts listing rows into DTOs.
func NewAssessmentTypeResponseSlice(rows []models.AssessmentTypeUsage) []AssessmentTypeResponse {
	responses := make([]AssessmentTypeResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, NewAssessmentTypeResponse(row.AssessmentType, row.UsageCount))
	}
	return responses
}
