package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/dto"
	"github.com/noah-isme/sekolah-api/internal/grading"
	"github.com/noah-isme/sekolah-api/internal/repository"
)

// ReportService composes report cards from final grades and grade entries.
type ReportService interface {
	GetReport(ctx context.Context, actor Actor, req dto.ReportRequest) (dto.ReportResponse, error)
}

type reportService struct {
	reports   repository.ReportRepository
	access    repository.AccessRepository
	validator *validator.Validate
	cache     *ReportCache
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReportService builds the report composer. cache may be nil.
func NewReportService(reports repository.ReportRepository, access repository.AccessRepository, validate *validator.Validate, cache *ReportCache, logger zerolog.Logger) ReportService {
	return &reportService{
		reports:   reports,
		access:    access,
		validator: validate,
		cache:     cache,
		logger:    logger.With().Str("component", "report_service").Logger(),
		now:       time.Now,
	}
}

func (s *reportService) GetReport(ctx context.Context, actor Actor, req dto.ReportRequest) (dto.ReportResponse, error) {
	ctx, span := otel.Tracer("github.com/noah-isme/sekolah-api/internal/service/report").Start(ctx, "report.get")
	defer span.End()

	req.Semester = strings.TrimSpace(req.Semester)
	if err := validateStruct(s.validator, req); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReportResponse{}, err
	}

	studentID, err := s.resolveStudent(ctx, actor, req.StudentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unauthorized")
		return dto.ReportResponse{}, err
	}
	span.SetAttributes(
		attribute.Int64("report.student_id", int64(studentID)),
		attribute.String("report.semester", req.Semester),
	)

	if cached, ok := s.cache.Get(ctx, studentID, req.Semester); ok {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("report.cache_hit", true))
		return cached, nil
	}

	report, err := s.compose(ctx, studentID, req.Semester)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compose_failed")
		return dto.ReportResponse{}, err
	}

	s.cache.Set(ctx, studentID, req.Semester, report)
	return report, nil
}

// resolveStudent applies the report visibility rules: students see themselves, teachers
// see students of classrooms they teach, administrators see everyone.
func (s *reportService) resolveStudent(ctx context.Context, actor Actor, requested uint) (uint, error) {
	switch {
	case actor.IsStudent():
		own, err := s.access.StudentIDForUser(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrStudentNotFound
			}
			return 0, &PersistenceError{Op: "resolve student", Err: err}
		}
		if requested != 0 && requested != own {
			return 0, ErrForbidden
		}
		return own, nil
	case actor.IsTeacher():
		if requested == 0 {
			return 0, ErrForbidden
		}
		if err := s.ensureStudentExists(ctx, requested); err != nil {
			return 0, err
		}
		teaches, err := s.access.TeacherTeachesStudent(ctx, actor.ID, requested)
		if err != nil {
			return 0, &PersistenceError{Op: "check classroom", Err: err}
		}
		if !teaches {
			return 0, ErrForbidden
		}
		return requested, nil
	case actor.IsAdmin():
		if requested == 0 {
			return 0, ErrForbidden
		}
		if err := s.ensureStudentExists(ctx, requested); err != nil {
			return 0, err
		}
		return requested, nil
	default:
		return 0, ErrForbidden
	}
}

func (s *reportService) ensureStudentExists(ctx context.Context, studentID uint) error {
	if _, err := s.reports.GetStudent(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return &PersistenceError{Op: "load student", Err: err}
	}
	return nil
}

func (s *reportService) compose(ctx context.Context, studentID uint, requested string) (dto.ReportResponse, error) {
	student, err := s.reports.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrStudentNotFound
		}
		return dto.ReportResponse{}, &PersistenceError{Op: "load student", Err: err}
	}

	semesters, err := s.reports.ListSemesters(ctx, studentID)
	if err != nil {
		return dto.ReportResponse{}, &PersistenceError{Op: "list semesters", Err: err}
	}
	if semesters == nil {
		semesters = []string{}
	}

	report := dto.ReportResponse{
		Student: dto.ReportStudent{
			ID:        student.ID,
			Name:      student.User.Name,
			NIS:       student.NIS,
			Classroom: student.Classroom.Name,
		},
		Semesters:        semesters,
		SelectedSemester: selectSemester(semesters, requested),
		FinalGrades:      make([]dto.ReportFinalGrade, 0),
		Details:          make([]dto.ReportGradeDetail, 0),
		GeneratedAt:      s.now().UTC(),
	}

	if report.SelectedSemester == "" {
		return report, nil
	}

	finals, err := s.reports.ListFinalGrades(ctx, studentID, report.SelectedSemester)
	if err != nil {
		return dto.ReportResponse{}, &PersistenceError{Op: "list final grades", Err: err}
	}

	var total float64
	for _, row := range finals {
		band := grading.Classify(row.FinalScore)
		report.FinalGrades = append(report.FinalGrades, dto.ReportFinalGrade{
			SubjectID:   row.SubjectID,
			SubjectName: row.SubjectName,
			FinalScore:  row.FinalScore,
			Band:        string(band),
			Tone:        band.Tone(),
			UpdatedAt:   row.UpdatedAt,
		})
		total += row.FinalScore
	}
	if len(finals) > 0 {
		average := total / float64(len(finals))
		report.Average = &average
	}

	details, err := s.reports.ListGradeDetails(ctx, studentID, report.SelectedSemester)
	if err != nil {
		return dto.ReportResponse{}, &PersistenceError{Op: "list grade details", Err: err}
	}
	for _, row := range details {
		band := grading.Classify(row.Score)
		report.Details = append(report.Details, dto.ReportGradeDetail{
			GradeEntryID:   row.GradeEntryID,
			SubjectName:    row.SubjectName,
			Assignment:     row.AssignmentTitle,
			AssessmentType: row.AssessmentTypeName,
			WeightPercent:  row.WeightPercent,
			Score:          row.Score,
			Band:           string(band),
			Tone:           band.Tone(),
			Comment:        row.Comment,
			Grader:         row.GraderName,
			GradedAt:       row.GradedAt,
		})
	}

	return report, nil
}

// selectSemester keeps the requested semester, or falls back to the newest one available.
func selectSemester(semesters []string, requested string) string {
	if requested != "" {
		return requested
	}
	if len(semesters) > 0 {
		return semesters[0]
	}
	return ""
}
