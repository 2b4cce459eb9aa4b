package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                  string
	AppEnv                   string
	AppPort                  string
	DatabaseURL              string
	RedisURL                 string
	NATSURL                  string
	NATSSubject              string
	JWTSecret                string
	ReportCacheTTL           time.Duration
	GradingRateLimit         int
	CloudinaryCloudName      string
	CloudinaryAPIKey         string
	CloudinaryAPISecret      string
	CloudinaryUploadFolder   string
	SubmissionMaxUploadBytes int
	CORSAllowOrigins         string
	HTTPAccessLog            bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether submission uploads can be forwarded to Cloudinary.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SEKOLAH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Sekolah API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "sekolah.grading")
	v.SetDefault("report.cache_ttl", "5m")
	v.SetDefault("rate_limit.grading_per_minute", 60)
	v.SetDefault("cloudinary.folder", "sekolah/submissions")
	v.SetDefault("submission.max_upload_bytes", 10*1024*1024)
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("http.access_log", false)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	ttlString := v.GetString("report.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid report cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                  v.GetString("app.name"),
		AppEnv:                   v.GetString("app.env"),
		AppPort:                  v.GetString("app.port"),
		DatabaseURL:              v.GetString("database.url"),
		RedisURL:                 v.GetString("redis.url"),
		NATSURL:                  v.GetString("nats.url"),
		NATSSubject:              v.GetString("nats.subject"),
		JWTSecret:                v.GetString("jwt.secret"),
		ReportCacheTTL:           ttl,
		GradingRateLimit:         v.GetInt("rate_limit.grading_per_minute"),
		CloudinaryCloudName:      v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:         v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:      v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder:   v.GetString("cloudinary.folder"),
		SubmissionMaxUploadBytes: v.GetInt("submission.max_upload_bytes"),
		CORSAllowOrigins:         strings.TrimSpace(v.GetString("cors.allow_origins")),
		HTTPAccessLog:            v.GetBool("http.access_log"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.GradingRateLimit <= 0 {
		cfg.GradingRateLimit = 60
	}

	if cfg.SubmissionMaxUploadBytes <= 0 {
		cfg.SubmissionMaxUploadBytes = 10 * 1024 * 1024
	}

	return cfg, nil
}
