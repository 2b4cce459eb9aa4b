package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/models"
)

func TestAssessmentTypeServiceValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		payload dto.AssessmentTypeRequest
		field   string
	}{
		{name: "blank name", payload: dto.AssessmentTypeRequest{Name: "   ", WeightPercent: 20}, field: "name"},
		{name: "zero weight", payload: dto.AssessmentTypeRequest{Name: "Project", WeightPercent: 0}, field: "weight_percent"},
		{name: "weight above 100", payload: dto.AssessmentTypeRequest{Name: "Project", WeightPercent: 100.5}, field: "weight_percent"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.assessmentTypes.Create(ctx, h.admin(), tc.payload)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			require.Equal(t, tc.field, validationErr.Fields[0].Field)
		})
	}

	var count int64
	require.NoError(t, h.db.Model(&models.AssessmentType{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestAssessmentTypeServiceCreateAndConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created, err := h.assessmentTypes.Create(ctx, h.admin(), dto.AssessmentTypeRequest{
		Name:          " Project ",
		WeightPercent: 100,
		Description:   "<script>alert(1)</script>Term project",
	})
	require.NoError(t, err)
	require.Equal(t, "Project", created.Name)
	require.Equal(t, "Term project", created.Description)

	_, err = h.assessmentTypes.Create(ctx, h.admin(), dto.AssessmentTypeRequest{Name: "project", WeightPercent: 40})
	require.ErrorIs(t, err, ErrConflict)

	_, err = h.assessmentTypes.Update(ctx, h.admin(), created.ID, dto.AssessmentTypeRequest{Name: "Quiz", WeightPercent: 40})
	require.ErrorIs(t, err, ErrConflict)

	updated, err := h.assessmentTypes.Update(ctx, h.admin(), created.ID, dto.AssessmentTypeRequest{Name: "Project", WeightPercent: 40})
	require.NoError(t, err)
	require.Equal(t, 40.0, updated.WeightPercent)

	_, err = h.assessmentTypes.Update(ctx, h.admin(), 9999, dto.AssessmentTypeRequest{Name: "Ghost", WeightPercent: 40})
	require.ErrorIs(t, err, ErrNotFound)

	activity, err := h.activity.List(ctx, h.admin(), dto.ActivityListRequest{EntityType: "assessment_type"})
	require.NoError(t, err)
	require.Len(t, activity.Items, 2)
}

func TestAssessmentTypeServiceRoles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.assessmentTypes.Create(ctx, h.teacher(), dto.AssessmentTypeRequest{Name: "Homework", WeightPercent: 10})
	require.ErrorIs(t, err, ErrForbidden)

	require.ErrorIs(t, h.assessmentTypes.Delete(ctx, h.teacher(), h.school.Quiz.ID), ErrForbidden)

	items, err := h.assessmentTypes.List(ctx, h.teacher())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Exam", items[0].Name)

	_, err = h.assessmentTypes.List(ctx, h.student())
	require.ErrorIs(t, err, ErrForbidden)
}

func TestAssessmentTypeServiceDeleteGuard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	submission := h.mathSubmission(t, "Quiz 1")
	_, err := h.grading.GradeSubmission(ctx, h.teacher(), submission.ID, gradeRequest(h.school.Quiz.ID, 80, ""))
	require.NoError(t, err)

	quiz, err := h.assessmentTypes.Get(ctx, h.admin(), h.school.Quiz.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), quiz.UsageCount)

	err = h.assessmentTypes.Delete(ctx, h.admin(), h.school.Quiz.ID)
	require.ErrorIs(t, err, ErrConflict)
	_, err = h.assessmentTypes.Get(ctx, h.admin(), h.school.Quiz.ID)
	require.NoError(t, err)

	require.NoError(t, h.assessmentTypes.Delete(ctx, h.admin(), h.school.Exam.ID))
	_, err = h.assessmentTypes.Get(ctx, h.admin(), h.school.Exam.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, h.assessmentTypes.Delete(ctx, h.admin(), h.school.Exam.ID), ErrNotFound)
}
