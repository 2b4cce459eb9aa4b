package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/models"
)

func gradeRequest(typeID uint, score float64, comment string) dto.GradeSubmissionRequest {
	return dto.GradeSubmissionRequest{AssessmentTypeID: typeID, Score: ptrFloat(score), Comment: comment}
}

func TestGradingServiceWorkedExample(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	quiz := h.mathSubmission(t, "Quiz 1")
	first, err := h.grading.GradeSubmission(ctx, h.teacher(), quiz.ID, gradeRequest(h.school.Quiz.ID, 80, "good"))
	require.NoError(t, err)
	require.True(t, first.Created)
	require.Equal(t, 40.0, first.FinalGrade.FinalScore)
	require.Equal(t, "Failed", first.FinalGrade.Band)

	exam := h.mathSubmission(t, "Midterm")
	second, err := h.grading.GradeSubmission(ctx, h.teacher(), exam.ID, gradeRequest(h.school.Exam.ID, 90, ""))
	require.NoError(t, err)
	require.Equal(t, 65.0, second.FinalGrade.FinalScore)
	require.Equal(t, "Remedial", second.FinalGrade.Band)

	computed, err := h.grading.ComputeFinalScore(ctx, h.mathKey())
	require.NoError(t, err)
	require.Equal(t, second.FinalGrade.FinalScore, computed)

	verification, err := h.grading.VerifyFinalGrade(ctx, h.admin(), dto.FinalGradeVerifyRequest{
		StudentID: h.school.Student.ID,
		SubjectID: h.school.Math.ID,
		Semester:  "1",
	})
	require.NoError(t, err)
	require.True(t, verification.Consistent)
	require.Equal(t, 2, verification.EntryCount)
	require.Equal(t, 65.0, *verification.StoredScore)
}

func TestGradingServiceCachedMatchesRecomputed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	weights := []float64{0.5, 12.5, 33.3, 50, 66.7, 99.9, 100}
	types := make([]uint, 0, len(weights))
	for i, weight := range weights {
		created, err := h.assessmentTypes.Create(ctx, h.admin(), dto.AssessmentTypeRequest{
			Name:          "Weight " + string(rune('A'+i)),
			WeightPercent: weight,
		})
		require.NoError(t, err)
		types = append(types, created.ID)
	}

	for i := 0; i < 20; i++ {
		submission := h.mathSubmission(t, "Drill")
		score := float64(rng.Intn(10001)) / 100
		if i == 0 {
			score = 0
		}
		if i == 1 {
			score = 100
		}

		result, err := h.grading.GradeSubmission(ctx, h.teacher(), submission.ID, gradeRequest(types[rng.Intn(len(types))], score, ""))
		require.NoError(t, err)

		computed, err := h.grading.ComputeFinalScore(ctx, h.mathKey())
		require.NoError(t, err)
		require.Equal(t, result.FinalGrade.FinalScore, computed)

		var stored models.FinalGrade
		require.NoError(t, h.db.Where("student_id = ? AND subject_id = ? AND semester = ?", h.school.Student.ID, h.school.Math.ID, "1").First(&stored).Error)
		require.Equal(t, computed, stored.FinalScore)
	}
}

func TestGradingServiceRegradeKeepsSingleEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submission := h.mathSubmission(t, "Essay")

	_, err := h.grading.GradeSubmission(ctx, h.teacher(), submission.ID, gradeRequest(h.school.Exam.ID, 55, "first pass"))
	require.NoError(t, err)

	second, err := h.grading.GradeSubmission(ctx, h.admin(), submission.ID, gradeRequest(h.school.Exam.ID, 85, "<b>revised</b>"))
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, 85.0, second.FinalGrade.FinalScore)
	require.Equal(t, "revised", second.Entry.Comment)
	require.Equal(t, h.school.Admin.ID, second.Entry.GradedBy)

	var entries []models.GradeEntry
	require.NoError(t, h.db.Where("submission_id = ?", submission.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	require.Equal(t, 85.0, entries[0].Score)

	var stored models.Submission
	require.NoError(t, h.db.First(&stored, submission.ID).Error)
	require.Equal(t, models.SubmissionStatusGraded, stored.Status)

	require.Equal(t, 2, h.publisher.count())
	last := h.publisher.messages[1]
	require.Equal(t, "sekolah.grading.recorded", last.Subject)
	require.NotEmpty(t, last.Header.Get(nats.MsgIdHdr))
	require.Contains(t, string(last.Data), `"regraded":true`)

	activity, err := h.activity.List(ctx, h.admin(), dto.ActivityListRequest{EntityType: "submission", EntityID: submission.ID})
	require.NoError(t, err)
	require.Len(t, activity.Items, 2)
	require.Equal(t, "grade.updated", activity.Items[0].Action)
}

func TestGradingServiceRejectsOutOfRangeScore(t *testing.T) {
	h := newHarness(t)
	submission := h.mathSubmission(t, "Lab")

	_, err := h.grading.GradeSubmission(context.Background(), h.teacher(), submission.ID, gradeRequest(h.school.Quiz.ID, 150, ""))
	require.ErrorIs(t, err, ErrValidation)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Len(t, validationErr.Fields, 1)
	require.Equal(t, "score", validationErr.Fields[0].Field)
	require.Equal(t, "score out of range", validationErr.Fields[0].Message)

	var stored models.Submission
	require.NoError(t, h.db.First(&stored, submission.ID).Error)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)

	var entries int64
	require.NoError(t, h.db.Model(&models.GradeEntry{}).Count(&entries).Error)
	require.Zero(t, entries)
	require.Zero(t, h.publisher.count())
}

func TestGradingServiceRequiresScore(t *testing.T) {
	h := newHarness(t)
	submission := h.mathSubmission(t, "Lab")

	_, err := h.grading.GradeSubmission(context.Background(), h.teacher(), submission.ID, dto.GradeSubmissionRequest{AssessmentTypeID: h.school.Quiz.ID})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "score", validationErr.Fields[0].Field)
}

func TestGradingServiceRejectsUnknownAssessmentType(t *testing.T) {
	h := newHarness(t)
	submission := h.mathSubmission(t, "Lab")

	_, err := h.grading.GradeSubmission(context.Background(), h.teacher(), submission.ID, gradeRequest(9999, 70, ""))
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "invalid assessment type")
}

func TestGradingServiceAuthorization(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submission := h.mathSubmission(t, "Lab")

	_, err := h.grading.GradeSubmission(ctx, h.otherTeacher(), submission.ID, gradeRequest(h.school.Quiz.ID, 70, ""))
	require.ErrorIs(t, err, ErrForbidden)

	_, err = h.grading.GradeSubmission(ctx, h.student(), submission.ID, gradeRequest(h.school.Quiz.ID, 70, ""))
	require.ErrorIs(t, err, ErrForbidden)

	var entries int64
	require.NoError(t, h.db.Model(&models.GradeEntry{}).Count(&entries).Error)
	require.Zero(t, entries)

	_, err = h.grading.GradeSubmission(ctx, h.admin(), submission.ID, gradeRequest(h.school.Quiz.ID, 70, ""))
	require.NoError(t, err)
}

func TestGradingServiceUnknownSubmission(t *testing.T) {
	h := newHarness(t)

	_, err := h.grading.GradeSubmission(context.Background(), h.admin(), 4242, gradeRequest(h.school.Quiz.ID, 70, ""))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGradingServiceRollsBackOnFailure(t *testing.T) {
	h := newHarness(t)
	submission := h.mathSubmission(t, "Lab")

	boom := errors.New("disk full")
	require.NoError(t, h.db.Callback().Create().Before("gorm:create").Register("test:fail_final_grades", func(tx *gorm.DB) {
		if tx.Statement.Table == "final_grades" {
			_ = tx.AddError(boom)
		}
	}))

	_, err := h.grading.GradeSubmission(context.Background(), h.teacher(), submission.ID, gradeRequest(h.school.Quiz.ID, 70, ""))
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, boom)

	var stored models.Submission
	require.NoError(t, h.db.First(&stored, submission.ID).Error)
	require.Equal(t, models.SubmissionStatusSubmitted, stored.Status)

	var entries int64
	require.NoError(t, h.db.Model(&models.GradeEntry{}).Count(&entries).Error)
	require.Zero(t, entries)
	require.Zero(t, h.publisher.count())
}

func TestGradingServiceInvalidatesCachedReports(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.reports.GetReport(ctx, h.student(), dto.ReportRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, h.redis.Keys())

	submission := h.mathSubmission(t, "Lab")
	_, err = h.grading.GradeSubmission(ctx, h.teacher(), submission.ID, gradeRequest(h.school.Exam.ID, 90, ""))
	require.NoError(t, err)
	require.Empty(t, h.redis.Keys())
}

func TestVerifyFinalGradeDetectsDrift(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submission := h.mathSubmission(t, "Lab")

	_, err := h.grading.GradeSubmission(ctx, h.teacher(), submission.ID, gradeRequest(h.school.Exam.ID, 90, ""))
	require.NoError(t, err)

	require.NoError(t, h.db.Model(&models.FinalGrade{}).Where("student_id = ?", h.school.Student.ID).Update("final_score", 12.5).Error)

	verification, err := h.grading.VerifyFinalGrade(ctx, h.teacher(), dto.FinalGradeVerifyRequest{
		StudentID: h.school.Student.ID,
		SubjectID: h.school.Math.ID,
		Semester:  "1",
	})
	require.NoError(t, err)
	require.False(t, verification.Consistent)
	require.Equal(t, 90.0, *verification.ComputedScore)

	_, err = h.grading.VerifyFinalGrade(ctx, h.student(), dto.FinalGradeVerifyRequest{StudentID: h.school.Student.ID, SubjectID: h.school.Math.ID, Semester: "1"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = h.grading.ComputeFinalScore(ctx, models.GradeKey{StudentID: h.school.OtherStudent.ID, SubjectID: h.school.Math.ID, Semester: "1"})
	require.ErrorIs(t, err, ErrNotFound)
}
