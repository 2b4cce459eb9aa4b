package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("SEKOLAH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("SEKOLAH_JWT_SECRET", "secret")
	t.Setenv("SEKOLAH_REPORT_CACHE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Sekolah API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 90*time.Second, cfg.ReportCacheTTL)
	require.Equal(t, "sekolah.grading", cfg.NATSSubject)
	require.Equal(t, 60, cfg.GradingRateLimit)
	require.False(t, cfg.CloudinaryEnabled())
	require.Equal(t, "*", cfg.CORSAllowOrigins)
	require.False(t, cfg.HTTPAccessLog)
}

func TestLoadReadsHTTPSettings(t *testing.T) {
	t.Setenv("SEKOLAH_JWT_SECRET", "secret")
	t.Setenv("SEKOLAH_CORS_ALLOW_ORIGINS", "https://portal.sekolah.test")
	t.Setenv("SEKOLAH_HTTP_ACCESS_LOG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://portal.sekolah.test", cfg.CORSAllowOrigins)
	require.True(t, cfg.HTTPAccessLog)
}

func TestLoadRejectsInvalidTTL(t *testing.T) {
	t.Setenv("SEKOLAH_JWT_SECRET", "secret")
	t.Setenv("SEKOLAH_REPORT_CACHE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestHTTPAddressKeepsColonPrefix(t *testing.T) {
	cfg := Config{AppPort: ":9000"}
	require.Equal(t, ":9000", cfg.HTTPAddress())
}
