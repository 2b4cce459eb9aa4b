package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/models"
	"github.com/noah-isme/sekolah-api/internal/repository"
)

const assessmentTypeTracer = "github.com/noah-isme/sekolah-api/internal/service/assessment_type"

// AssessmentTypeService manages the weighted grading categories.
type AssessmentTypeService interface {
	List(ctx context.Context, actor Actor) ([]dto.AssessmentTypeResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.AssessmentTypeResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.AssessmentTypeRequest) (dto.AssessmentTypeResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.AssessmentTypeRequest) (dto.AssessmentTypeResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type assessmentTypeService struct {
	repo      repository.AssessmentTypeRepository
	validator *validator.Validate
	policy    *bluemonday.Policy
	reports   ReportInvalidator
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewAssessmentTypeService constructs the registry service. Reports show type names and
// weights, so updates flush the report cache through reports when it is set.
func NewAssessmentTypeService(repo repository.AssessmentTypeRepository, validate *validator.Validate, reports ReportInvalidator, activity ActivityRecorder, logger zerolog.Logger) AssessmentTypeService {
	return &assessmentTypeService{
		repo:      repo,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		reports:   reports,
		activity:  activity,
		logger:    logger.With().Str("component", "assessment_type_service").Logger(),
	}
}

func (s *assessmentTypeService) List(ctx context.Context, actor Actor) ([]dto.AssessmentTypeResponse, error) {
	if !actor.IsAdmin() && !actor.IsTeacher() {
		return nil, ErrForbidden
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list assessment types", Err: err}
	}
	return dto.NewAssessmentTypeResponseSlice(rows), nil
}

func (s *assessmentTypeService) Get(ctx context.Context, actor Actor, id uint) (dto.AssessmentTypeResponse, error) {
	if !actor.IsAdmin() && !actor.IsTeacher() {
		return dto.AssessmentTypeResponse{}, ErrForbidden
	}

	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentTypeResponse{}, ErrAssessmentTypeNotFound
		}
		return dto.AssessmentTypeResponse{}, &PersistenceError{Op: "load assessment type", Err: err}
	}

	usage, err := s.repo.CountUsage(ctx, id)
	if err != nil {
		return dto.AssessmentTypeResponse{}, &PersistenceError{Op: "count assessment type usage", Err: err}
	}
	return dto.NewAssessmentTypeResponse(model, usage), nil
}

func (s *assessmentTypeService) Create(ctx context.Context, actor Actor, payload dto.AssessmentTypeRequest) (dto.AssessmentTypeResponse, error) {
	ctx, span := otel.Tracer(assessmentTypeTracer).Start(ctx, "assessment_type.create")
	defer span.End()

	if !actor.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.AssessmentTypeResponse{}, ErrForbidden
	}

	payload = s.normalize(payload)
	if err := validateStruct(s.validator, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AssessmentTypeResponse{}, err
	}

	if err := s.ensureNameAvailable(ctx, payload.Name, 0); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "name_conflict")
		return dto.AssessmentTypeResponse{}, err
	}

	model := models.AssessmentType{
		Name:          payload.Name,
		WeightPercent: payload.WeightPercent,
		Description:   payload.Description,
	}
	if err := s.repo.Create(ctx, &model); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return dto.AssessmentTypeResponse{}, &PersistenceError{Op: "create assessment type", Err: err}
	}

	span.SetAttributes(attribute.Int64("assessment_type.id", int64(model.ID)))
	s.logger.Info().Uint("assessment_type_id", model.ID).Str("name", model.Name).Msg("assessment type created")
	s.record(ctx, actor, "assessment_type.created", model)

	return dto.NewAssessmentTypeResponse(model, 0), nil
}

func (s *assessmentTypeService) Update(ctx context.Context, actor Actor, id uint, payload dto.AssessmentTypeRequest) (dto.AssessmentTypeResponse, error) {
	ctx, span := otel.Tracer(assessmentTypeTracer).Start(ctx, "assessment_type.update")
	span.SetAttributes(attribute.Int64("assessment_type.id", int64(id)))
	defer span.End()

	if !actor.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.AssessmentTypeResponse{}, ErrForbidden
	}

	payload = s.normalize(payload)
	if err := validateStruct(s.validator, payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AssessmentTypeResponse{}, err
	}

	if err := s.ensureNameAvailable(ctx, payload.Name, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "name_conflict")
		return dto.AssessmentTypeResponse{}, err
	}

	model := models.AssessmentType{
		ID:            id,
		Name:          payload.Name,
		WeightPercent: payload.WeightPercent,
		Description:   payload.Description,
	}
	if err := s.repo.Update(ctx, &model); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not_found")
			return dto.AssessmentTypeResponse{}, ErrAssessmentTypeNotFound
		}
		span.SetStatus(codes.Error, "update_failed")
		return dto.AssessmentTypeResponse{}, &PersistenceError{Op: "update assessment type", Err: err}
	}

	s.logger.Info().Uint("assessment_type_id", id).Msg("assessment type updated")
	if s.reports != nil {
		if err := s.reports.InvalidateAll(ctx); err != nil {
			s.logger.Warn().Err(err).Uint("assessment_type_id", id).Msg("failed to flush report cache")
		}
	}
	s.record(ctx, actor, "assessment_type.updated", model)

	return s.Get(ctx, actor, id)
}

func (s *assessmentTypeService) Delete(ctx context.Context, actor Actor, id uint) error {
	ctx, span := otel.Tracer(assessmentTypeTracer).Start(ctx, "assessment_type.delete")
	span.SetAttributes(attribute.Int64("assessment_type.id", int64(id)))
	defer span.End()

	if !actor.IsAdmin() {
		span.SetStatus(codes.Error, "forbidden")
		return ErrForbidden
	}

	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "not_found")
			return ErrAssessmentTypeNotFound
		}
		span.RecordError(err)
		return &PersistenceError{Op: "load assessment type", Err: err}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, repository.ErrInUse):
			span.SetStatus(codes.Error, "in_use")
			return ErrAssessmentTypeInUse
		case errors.Is(err, gorm.ErrRecordNotFound):
			span.SetStatus(codes.Error, "not_found")
			return ErrAssessmentTypeNotFound
		default:
			span.SetStatus(codes.Error, "delete_failed")
			return &PersistenceError{Op: "delete assessment type", Err: err}
		}
	}

	s.logger.Info().Uint("assessment_type_id", id).Msg("assessment type deleted")
	s.record(ctx, actor, "assessment_type.deleted", model)
	return nil
}

func (s *assessmentTypeService) normalize(payload dto.AssessmentTypeRequest) dto.AssessmentTypeRequest {
	payload.Name = strings.TrimSpace(s.policy.Sanitize(payload.Name))
	payload.Description = strings.TrimSpace(s.policy.Sanitize(payload.Description))
	return payload
}

func (s *assessmentTypeService) ensureNameAvailable(ctx context.Context, name string, excludeID uint) error {
	taken, err := s.repo.NameTaken(ctx, name, excludeID)
	if err != nil {
		return &PersistenceError{Op: "check assessment type name", Err: err}
	}
	if taken {
		return ErrAssessmentTypeNameTaken
	}
	return nil
}

func (s *assessmentTypeService) record(ctx context.Context, actor Actor, action string, model models.AssessmentType) {
	id := model.ID
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "assessment_type",
		EntityID:   &id,
		Metadata: map[string]interface{}{
			"name":           model.Name,
			"weight_percent": model.WeightPercent,
		},
	})
}
