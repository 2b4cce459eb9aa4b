package service

import (
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/models"
	"github.com/noah-isme/sekolah-api/internal/repository"
	"github.com/noah-isme/sekolah-api/internal/testutil"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*nats.Msg
}

func (p *recordingPublisher) PublishMsg(msg *nats.Msg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

// harness wires every service against one SQLite database and one miniredis server.
type harness struct {
	db        *gorm.DB
	school    testutil.School
	redis     *miniredis.Miniredis
	publisher *recordingPublisher

	activity        ActivityService
	assessmentTypes AssessmentTypeService
	submissions     SubmissionService
	grading         GradingService
	reports         ReportService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	validate := NewValidator()
	logger := testLogger()
	publisher := &recordingPublisher{}

	typeRepo := repository.NewAssessmentTypeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	cache := NewReportCache(client, time.Minute, logger)

	activity := NewActivityService(repository.NewActivityLogRepository(db), logger)

	return &harness{
		db:              db,
		school:          testutil.SeedSchool(t, db),
		redis:           server,
		publisher:       publisher,
		activity:        activity,
		assessmentTypes: NewAssessmentTypeService(typeRepo, validate, cache, activity, logger),
		submissions:     NewSubmissionService(submissionRepo, accessRepo, validate, nil, activity, logger),
		grading: NewGradingService(GradingDependencies{
			Grades:          repository.NewGradingRepository(db),
			AssessmentTypes: typeRepo,
			Submissions:     submissionRepo,
			Access:          accessRepo,
			Validator:       validate,
			Reports:         cache,
			Events:          NewGradeEvents(publisher, "sekolah.grading", logger),
			Activity:        activity,
		}, logger),
		reports: NewReportService(repository.NewReportRepository(db), accessRepo, validate, cache, logger),
	}
}

func (h *harness) admin() Actor {
	return Actor{ID: h.school.Admin.ID, Role: models.RoleAdmin}
}

func (h *harness) teacher() Actor {
	return Actor{ID: h.school.TeacherUser.ID, Role: models.RoleTeacher}
}

func (h *harness) otherTeacher() Actor {
	return Actor{ID: h.school.OtherTeacherUser.ID, Role: models.RoleTeacher}
}

func (h *harness) student() Actor {
	return Actor{ID: h.school.StudentUser.ID, Role: models.RoleStudent}
}

func (h *harness) otherStudent() Actor {
	return Actor{ID: h.school.OtherStudentUser.ID, Role: models.RoleStudent}
}

// mathSubmission creates an ungraded submission of Student for a new Math assignment.
func (h *harness) mathSubmission(t *testing.T, title string) models.Submission {
	t.Helper()
	assignment := testutil.CreateAssignment(t, h.db, h.school.MathSchedule, title)
	return testutil.CreateSubmission(t, h.db, assignment, h.school.Student)
}

func (h *harness) mathKey() models.GradeKey {
	return models.GradeKey{StudentID: h.school.Student.ID, SubjectID: h.school.Math.ID, Semester: "1"}
}

func ptrFloat(v float64) *float64 {
	return &v
}

func ptrUint(v uint) *uint {
	return &v
}
