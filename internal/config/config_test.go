package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/sales-tracker-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "COMMISSION_RATE", "CORS_ORIGINS", "CACHE_TTL"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, config.BackendSQLite, cfg.StoreBackend)
	assert.InDelta(t, 0.06, cfg.CommissionRate, 1e-9)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.IsRemote())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", "Supabase")
	t.Setenv("COMMISSION_RATE", "0.1")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("MAX_RETRIES", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, config.BackendSupabase, cfg.StoreBackend)
	assert.True(t, cfg.IsRemote())
	assert.InDelta(t, 0.1, cfg.CommissionRate, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestLocation_FallsBackToLocal(t *testing.T) {
	cfg := &config.Config{Timezone: "Nowhere/Invalid"}
	assert.Equal(t, time.Local, cfg.Location())

	cfg.Timezone = "UTC"
	assert.Equal(t, "UTC", cfg.Location().String())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TRACKER_TEST_A=from-file\nTRACKER_TEST_B=from-file\n"), 0o600))
	t.Setenv("TRACKER_TEST_B", "from-env")
	t.Setenv("TRACKER_TEST_A", "")
	require.NoError(t, os.Unsetenv("TRACKER_TEST_A"))

	require.NoError(t, config.LoadDotEnv(path))

	assert.Equal(t, "from-file", os.Getenv("TRACKER_TEST_A"))
	assert.Equal(t, "from-env", os.Getenv("TRACKER_TEST_B"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
