package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/models"
	"github.com/noah-isme/sekolah-api/internal/repository"
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

var allowedSubmissionTypes = []string{
	"application/pdf",
	"application/zip",
	"application/x-zip-compressed",
	"text/plain",
	"image/png",
	"image/jpeg",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/msword",
}

// SubmissionService orchestrates student submissions.
type SubmissionService interface {
	Submit(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	access      repository.AccessRepository
	validator   *validator.Validate
	uploader    FileUploader
	policy      *bluemonday.Policy
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance. uploader may be nil, in
// which case file attachments are rejected.
func NewSubmissionService(submissions repository.SubmissionRepository, access repository.AccessRepository, validate *validator.Validate, uploader FileUploader, activity ActivityRecorder, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		access:      access,
		validator:   validate,
		uploader:    uploader,
		policy:      bluemonday.StrictPolicy(),
		activity:    activity,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if !actor.IsStudent() {
		return dto.SubmissionResponse{}, ErrForbidden
	}

	payload.StudentComment = strings.TrimSpace(s.policy.Sanitize(payload.StudentComment))
	if err := validateStruct(s.validator, payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	studentID, err := s.access.StudentIDForUser(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrStudentNotFound
		}
		return dto.SubmissionResponse{}, &PersistenceError{Op: "resolve student", Err: err}
	}

	assignment, err := s.submissions.GetAssignment(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, &PersistenceError{Op: "load assignment", Err: err}
	}

	now := s.now()
	if assignment.IsPastDue(now) {
		return dto.SubmissionResponse{}, newValidationError("assignment is past due", FieldError{Field: "assignment_id", Message: "assignment is past due"})
	}

	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, studentID)
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, &PersistenceError{Op: "load submission", Err: err}
	}
	if found && existing.IsGraded() {
		return dto.SubmissionResponse{}, ErrSubmissionAlreadyGraded
	}

	fileURL := existing.FileURL
	if file != nil {
		fileURL, err = s.upload(ctx, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	submission := models.Submission{
		ID:             existing.ID,
		AssignmentID:   assignment.ID,
		StudentID:      studentID,
		SubmittedAt:    now,
		FileURL:        fileURL,
		StudentComment: payload.StudentComment,
		Status:         models.SubmissionStatusSubmitted,
	}

	action := "submission.created"
	if found {
		action = "submission.resubmitted"
		if err := s.resubmit(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, err
		}
	} else if err := s.submissions.Create(ctx, &submission); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, &PersistenceError{Op: "create submission", Err: err}
		}
		// A concurrent first submission won the insert; this one replaces its work.
		winner, err := s.submissions.GetByAssignmentAndStudent(ctx, assignment.ID, studentID)
		if err != nil {
			return dto.SubmissionResponse{}, &PersistenceError{Op: "load submission", Err: err}
		}
		if winner.IsGraded() {
			return dto.SubmissionResponse{}, ErrSubmissionAlreadyGraded
		}
		submission.ID = winner.ID
		if submission.FileURL == "" {
			submission.FileURL = winner.FileURL
		}
		action = "submission.resubmitted"
		if err := s.resubmit(ctx, &submission); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	stored, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, &PersistenceError{Op: "reload submission", Err: err}
	}

	s.logger.Info().Uint("submission_id", stored.ID).Uint("assignment_id", assignment.ID).Str("action", action).Msg("submission stored")
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "submission",
		EntityID:   &stored.ID,
		Metadata: map[string]interface{}{
			"assignment_id": assignment.ID,
			"student_id":    studentID,
			"has_file":      fileURL != "",
		},
	})

	return dto.NewSubmissionResponse(stored), nil
}

func (s *submissionService) resubmit(ctx context.Context, submission *models.Submission) error {
	if err := s.submissions.Resubmit(ctx, submission); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionAlreadyGraded
		}
		return &PersistenceError{Op: "resubmit", Err: err}
	}
	return nil
}

func (s *submissionService) Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, &PersistenceError{Op: "load submission", Err: err}
	}

	switch {
	case actor.IsAdmin():
	case actor.IsTeacher():
		owns, err := s.access.TeacherOwnsSubmission(ctx, actor.ID, submission.ID)
		if err != nil {
			return dto.SubmissionResponse{}, &PersistenceError{Op: "check schedule ownership", Err: err}
		}
		if !owns {
			return dto.SubmissionResponse{}, ErrForbidden
		}
	case actor.IsStudent():
		studentID, err := s.access.StudentIDForUser(ctx, actor.ID)
		if err != nil || studentID != submission.StudentID {
			return dto.SubmissionResponse{}, ErrForbidden
		}
	default:
		return dto.SubmissionResponse{}, ErrForbidden
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := validateStruct(s.validator, filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}

	switch {
	case actor.IsAdmin():
	case actor.IsTeacher():
		teacherUserID := actor.ID
		repoFilter.TeacherUserID = &teacherUserID
	case actor.IsStudent():
		studentID, err := s.access.StudentIDForUser(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStudentNotFound
			}
			return nil, &PersistenceError{Op: "resolve student", Err: err}
		}
		repoFilter.StudentID = &studentID
	default:
		return nil, ErrForbidden
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, &PersistenceError{Op: "list submissions", Err: err}
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.uploader == nil {
		return "", newValidationError("file uploads are disabled", FieldError{Field: "file", Message: "file uploads are disabled"})
	}

	if err := validateFileType(file); err != nil {
		return "", newValidationError(err.Error(), FieldError{Field: "file", Message: err.Error()})
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return url, nil
}

func validateFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	for _, allowed := range allowedSubmissionTypes {
		if mime.Is(allowed) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
