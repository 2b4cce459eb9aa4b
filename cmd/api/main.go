package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/sekolah-api/internal/config"
	"github.com/noah-isme/sekolah-api/internal/database"
	"github.com/noah-isme/sekolah-api/internal/handler"
	"github.com/noah-isme/sekolah-api/internal/middleware"
	"github.com/noah-isme/sekolah-api/internal/observability"
	"github.com/noah-isme/sekolah-api/internal/repository"
	"github.com/noah-isme/sekolah-api/internal/router"
	"github.com/noah-isme/sekolah-api/internal/service"
	cloud "github.com/noah-isme/sekolah-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "sekolah-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("env", cfg.AppEnv).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, database.DefaultPool)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	var limiterStorage fiber.Storage
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		limiterStorage = middleware.NewRedisLimiterStorage(redisClient)
	} else {
		logger.Warn().Msg("redis url not configured, report caching disabled and rate limits kept in memory")
	}

	var publisher service.EventPublisher
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		publisher = natsConn
	} else {
		logger.Warn().Msg("nats url not configured, grade events disabled")
	}

	var uploader service.FileUploader
	if cfg.CloudinaryEnabled() {
		cld, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		uploader = cld
	} else {
		logger.Warn().Msg("cloudinary not configured, submission files will be rejected")
	}

	observability.RegisterMetrics()
	validate := service.NewValidator()

	assessmentTypeRepo := repository.NewAssessmentTypeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	gradingRepo := repository.NewGradingRepository(db)
	reportRepo := repository.NewReportRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	reportCache := service.NewReportCache(redisClient, cfg.ReportCacheTTL, logger)
	assessmentTypeService := service.NewAssessmentTypeService(assessmentTypeRepo, validate, reportCache, activityService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, accessRepo, validate, uploader, activityService, logger)
	gradingService := service.NewGradingService(service.GradingDependencies{
		Grades:          gradingRepo,
		AssessmentTypes: assessmentTypeRepo,
		Submissions:     submissionRepo,
		Access:          accessRepo,
		Validator:       validate,
		Reports:         reportCache,
		Events:          service.NewGradeEvents(publisher, cfg.NATSSubject, logger),
		Activity:        activityService,
	}, logger)
	reportService := service.NewReportService(reportRepo, accessRepo, validate, reportCache, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    cfg.SubmissionMaxUploadBytes,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.HTTPAccessLog,
	})
	router.Register(app, cfg, router.Dependencies{
		AssessmentTypeHandler: handler.NewAssessmentTypeHandler(assessmentTypeService, logger),
		SubmissionHandler:     handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:        handler.NewGradingHandler(gradingService, logger),
		ReportHandler:         handler.NewReportHandler(reportService, logger),
		ActivityHandler:       handler.NewActivityHandler(activityService, logger),
		HealthProbes:          healthProbes(db, redisClient),
		RateLimitStorage:      limiterStorage,
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Msg("server started")
	waitForShutdown(app, natsConn, logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, natsConn *nats.Conn, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			logger.Error().Err(err).Msg("failed to drain nats connection")
		}
	}

	logger.Info().Msg("server stopped")
}
