package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/config"
	"github.com/noah-isme/sekolah-api/internal/handler"
	"github.com/noah-isme/sekolah-api/internal/middleware"
	"github.com/noah-isme/sekolah-api/internal/models"
	"github.com/noah-isme/sekolah-api/internal/repository"
	"github.com/noah-isme/sekolah-api/internal/router"
	"github.com/noah-isme/sekolah-api/internal/service"
	"github.com/noah-isme/sekolah-api/internal/testutil"
)

const testSecret = "handler-test-secret"

type memoryUploader struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (u *memoryUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.files == nil {
		u.files = make(map[string][]byte)
	}
	u.files[name] = data
	return "https://files.test/" + name, nil
}

type countingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *countingPublisher) PublishMsg(msg *nats.Msg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, msg.Subject)
	return nil
}

// logBuffer collects log lines written while the app serves test requests.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// messages returns the decoded log lines whose message equals msg.
func (b *logBuffer) messages(t *testing.T, msg string) []map[string]interface{} {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var matched []map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(b.buf.Bytes()))
	for decoder.More() {
		var line map[string]interface{}
		require.NoError(t, decoder.Decode(&line))
		if line["message"] == msg {
			matched = append(matched, line)
		}
	}
	return matched
}

type testApp struct {
	app       *fiber.App
	db        *gorm.DB
	school    testutil.School
	redis     *miniredis.Miniredis
	uploader  *memoryUploader
	publisher *countingPublisher
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithLogger(t, zerolog.Nop())
}

func newTestAppWithLogger(t *testing.T, logger zerolog.Logger) *testApp {
	t.Helper()

	db := testutil.NewDB(t)
	school := testutil.SeedSchool(t, db)
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	validate := service.NewValidator()
	uploader := &memoryUploader{}
	publisher := &countingPublisher{}

	typeRepo := repository.NewAssessmentTypeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	cache := service.NewReportCache(client, time.Minute, logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)

	grading := service.NewGradingService(service.GradingDependencies{
		Grades:          repository.NewGradingRepository(db),
		AssessmentTypes: typeRepo,
		Submissions:     submissionRepo,
		Access:          accessRepo,
		Validator:       validate,
		Reports:         cache,
		Events:          service.NewGradeEvents(publisher, "sekolah.grading", logger),
		Activity:        activity,
	}, logger)

	cfg := config.Config{AppName: "Sekolah Test", AppEnv: "test", JWTSecret: testSecret, GradingRateLimit: 1000}

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AssessmentTypeHandler: handler.NewAssessmentTypeHandler(service.NewAssessmentTypeService(typeRepo, validate, cache, activity, logger), logger),
		SubmissionHandler:     handler.NewSubmissionHandler(service.NewSubmissionService(submissionRepo, accessRepo, validate, uploader, activity, logger), logger),
		GradingHandler:        handler.NewGradingHandler(grading, logger),
		ReportHandler:         handler.NewReportHandler(service.NewReportService(repository.NewReportRepository(db), accessRepo, validate, cache, logger), logger),
		ActivityHandler:       handler.NewActivityHandler(activity, logger),
		HealthProbes: map[string]handler.HealthProbe{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		},
		JWTMiddleware: middleware.JWTProtected(testSecret),
	})

	return &testApp{
		app:       app,
		db:        db,
		school:    school,
		redis:     server,
		uploader:  uploader,
		publisher: publisher,
	}
}

func bearer(t *testing.T, user models.User) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": user.Role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

// request sends a JSON request as user. A nil user sends no Authorization header.
func (a *testApp) request(t *testing.T, method, path string, user *models.User, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", bearer(t, *user))
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

func decodeEnvelope(t *testing.T, resp *http.Response, data interface{}) envelope {
	t.Helper()
	var env envelope
	decodeResponse(t, resp, &env)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
