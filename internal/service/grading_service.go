package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/grading"
	"github.com/noah-isme/sekolah-api/internal/models"
	"github.com/noah-isme/sekolah-api/internal/observability"
	"github.com/noah-isme/sekolah-api/internal/repository"
)

const gradingTracer = "github.com/noah-isme/sekolah-api/internal/service/grading"

// GradingService records grades and keeps final grades consistent with the ledger.
type GradingService interface {
	GradeSubmission(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeSubmissionRequest) (dto.GradeSubmissionResponse, error)
	ComputeFinalScore(ctx context.Context, key models.GradeKey) (float64, error)
	VerifyFinalGrade(ctx context.Context, actor Actor, req dto.FinalGradeVerifyRequest) (dto.FinalGradeVerification, error)
}

// ReportInvalidator drops cached reports after grades or the registry change.
type ReportInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID uint) error
	InvalidateAll(ctx context.Context) error
}

// GradingDependencies groups the collaborators of the grading service.
type GradingDependencies struct {
	Grades          repository.GradingRepository
	AssessmentTypes repository.AssessmentTypeRepository
	Submissions     repository.SubmissionRepository
	Access          repository.AccessRepository
	Validator       *validator.Validate
	Reports         ReportInvalidator
	Events          *GradeEvents
	Activity        ActivityRecorder
}

type gradingService struct {
	grades          repository.GradingRepository
	assessmentTypes repository.AssessmentTypeRepository
	submissions     repository.SubmissionRepository
	access          repository.AccessRepository
	validator       *validator.Validate
	policy          *bluemonday.Policy
	reports         ReportInvalidator
	events          *GradeEvents
	activity        ActivityRecorder
	logger          zerolog.Logger
	now             func() time.Time
}

// NewGradingService constructs the grading workflow.
func NewGradingService(deps GradingDependencies, logger zerolog.Logger) GradingService {
	return &gradingService{
		grades:          deps.Grades,
		assessmentTypes: deps.AssessmentTypes,
		submissions:     deps.Submissions,
		access:          deps.Access,
		validator:       deps.Validator,
		policy:          bluemonday.StrictPolicy(),
		reports:         deps.Reports,
		events:          deps.Events,
		activity:        deps.Activity,
		logger:          logger.With().Str("component", "grading_service").Logger(),
		now:             time.Now,
	}
}

func (s *gradingService) GradeSubmission(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeSubmissionRequest) (dto.GradeSubmissionResponse, error) {
	ctx, span := otel.Tracer(gradingTracer).Start(ctx, "grading.grade_submission")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	fail := func(outcome, status string, err error) (dto.GradeSubmissionResponse, error) {
		observability.GradingRecorded().WithLabelValues(outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		return dto.GradeSubmissionResponse{}, err
	}

	payload.Comment = strings.TrimSpace(s.policy.Sanitize(payload.Comment))
	if err := validateStruct(s.validator, payload); err != nil {
		return fail("rejected", "validation_failed", err)
	}

	assessmentType, err := s.assessmentTypes.GetByID(ctx, payload.AssessmentTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail("rejected", "invalid_assessment_type", newValidationError("invalid assessment type",
				FieldError{Field: "assessment_type_id", Message: "invalid assessment type"}))
		}
		return fail("failed", "assessment_type_lookup_failed", &PersistenceError{Op: "load assessment type", Err: err})
	}

	if _, err := s.submissions.GetByID(ctx, submissionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail("rejected", "submission_not_found", ErrSubmissionNotFound)
		}
		return fail("failed", "submission_lookup_failed", &PersistenceError{Op: "load submission", Err: err})
	}

	if err := s.authorizeGrader(ctx, actor, submissionID); err != nil {
		if errors.Is(err, ErrForbidden) {
			return fail("forbidden", "forbidden", err)
		}
		return fail("failed", "authorization_failed", err)
	}

	gradedAt := s.now()
	result, err := s.grades.RecordGrade(ctx, repository.RecordGradeInput{
		SubmissionID:     submissionID,
		AssessmentTypeID: assessmentType.ID,
		Score:            *payload.Score,
		Comment:          payload.Comment,
		GradedBy:         actor.ID,
		GradedAt:         gradedAt,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail("rejected", "submission_not_found", ErrSubmissionNotFound)
		}
		// The assessment type was deleted between validation and the insert.
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return fail("rejected", "assessment_type_not_found", ErrAssessmentTypeNotFound)
		}
		s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("grading transaction rolled back")
		return fail("failed", "transaction_failed", &PersistenceError{Op: "record grade", Err: err})
	}

	outcome := "updated"
	if result.Created {
		outcome = "created"
	}
	observability.GradingRecorded().WithLabelValues(outcome).Inc()
	observability.FinalGradeRecomputations().Inc()

	span.SetAttributes(
		attribute.Float64("grading.score", result.Entry.Score),
		attribute.Float64("grading.final_score", result.FinalGrade.FinalScore),
		attribute.Bool("grading.regraded", !result.Created),
	)
	s.logger.Debug().
		Uint("submission_id", submissionID).
		Uint("student_id", result.Entry.StudentID).
		Uint("subject_id", result.Entry.SubjectID).
		Str("semester", result.Entry.Semester).
		Float64("final_score", result.FinalGrade.FinalScore).
		Msg("final grade recomputed")

	s.afterCommit(ctx, actor, result)

	return dto.GradeSubmissionResponse{
		Entry:      dto.NewGradeEntryResponse(result.Entry),
		FinalGrade: dto.NewFinalGradeResponse(result.FinalGrade, string(grading.Classify(result.FinalGrade.FinalScore))),
		Created:    result.Created,
	}, nil
}

// authorizeGrader allows administrators and the teacher owning the submission's schedule.
func (s *gradingService) authorizeGrader(ctx context.Context, actor Actor, submissionID uint) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsTeacher():
		owns, err := s.access.TeacherOwnsSubmission(ctx, actor.ID, submissionID)
		if err != nil {
			return &PersistenceError{Op: "check schedule ownership", Err: err}
		}
		if !owns {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}

func (s *gradingService) afterCommit(ctx context.Context, actor Actor, result repository.RecordGradeResult) {
	entry := result.Entry

	if s.reports != nil {
		if err := s.reports.InvalidateStudent(ctx, entry.StudentID); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", entry.StudentID).Msg("failed to invalidate report cache")
		}
	}

	action := "grade.updated"
	if result.Created {
		action = "grade.recorded"
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "submission",
		EntityID:   &entry.SubmissionID,
		Metadata: map[string]interface{}{
			"grade_entry_id":     entry.ID,
			"student_id":         entry.StudentID,
			"subject_id":         entry.SubjectID,
			"semester":           entry.Semester,
			"assessment_type_id": entry.AssessmentTypeID,
			"score":              entry.Score,
			"final_score":        result.FinalGrade.FinalScore,
		},
	})

	s.events.PublishGradeRecorded(ctx, GradeRecordedEvent{
		SubmissionID:     entry.SubmissionID,
		GradeEntryID:     entry.ID,
		StudentID:        entry.StudentID,
		SubjectID:        entry.SubjectID,
		Semester:         entry.Semester,
		AssessmentTypeID: entry.AssessmentTypeID,
		Score:            entry.Score,
		FinalScore:       result.FinalGrade.FinalScore,
		GradedBy:         entry.GradedBy,
		GradedAt:         entry.GradedAt,
		Regraded:         !result.Created,
	})
}

func (s *gradingService) ComputeFinalScore(ctx context.Context, key models.GradeKey) (float64, error) {
	scores, err := s.grades.WeightedScores(ctx, key)
	if err != nil {
		return 0, &PersistenceError{Op: "load grade entries", Err: err}
	}

	score, ok := grading.FinalScore(scores)
	if !ok {
		return 0, ErrFinalGradeNotFound
	}
	return score, nil
}

func (s *gradingService) VerifyFinalGrade(ctx context.Context, actor Actor, req dto.FinalGradeVerifyRequest) (dto.FinalGradeVerification, error) {
	ctx, span := otel.Tracer(gradingTracer).Start(ctx, "grading.verify_final_grade")
	defer span.End()

	req.Semester = strings.TrimSpace(req.Semester)
	if err := validateStruct(s.validator, req); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.FinalGradeVerification{}, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsTeacher():
		teaches, err := s.access.TeacherTeachesStudent(ctx, actor.ID, req.StudentID)
		if err != nil {
			return dto.FinalGradeVerification{}, &PersistenceError{Op: "check classroom", Err: err}
		}
		if !teaches {
			span.SetStatus(codes.Error, "forbidden")
			return dto.FinalGradeVerification{}, ErrForbidden
		}
	default:
		span.SetStatus(codes.Error, "forbidden")
		return dto.FinalGradeVerification{}, ErrForbidden
	}

	key := models.GradeKey{StudentID: req.StudentID, SubjectID: req.SubjectID, Semester: req.Semester}
	verification := dto.FinalGradeVerification{
		StudentID: key.StudentID,
		SubjectID: key.SubjectID,
		Semester:  key.Semester,
	}

	scores, err := s.grades.WeightedScores(ctx, key)
	if err != nil {
		span.RecordError(err)
		return dto.FinalGradeVerification{}, &PersistenceError{Op: "load grade entries", Err: err}
	}
	verification.EntryCount = len(scores)
	if computed, ok := grading.FinalScore(scores); ok {
		verification.ComputedScore = &computed
	}

	stored, err := s.grades.GetFinalGrade(ctx, key)
	switch {
	case err == nil:
		verification.StoredScore = &stored.FinalScore
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		span.RecordError(err)
		return dto.FinalGradeVerification{}, &PersistenceError{Op: "load final grade", Err: err}
	}

	switch {
	case verification.StoredScore == nil && verification.ComputedScore == nil:
		verification.Consistent = true
	case verification.StoredScore != nil && verification.ComputedScore != nil:
		verification.Consistent = *verification.StoredScore == *verification.ComputedScore
	}

	span.SetAttributes(attribute.Bool("grading.consistent", verification.Consistent))
	if !verification.Consistent {
		s.logger.Warn().
			Uint("student_id", key.StudentID).
			Uint("subject_id", key.SubjectID).
			Str("semester", key.Semester).
			Msg("final grade drifted from grade entries")
	}

	return verification, nil
}
