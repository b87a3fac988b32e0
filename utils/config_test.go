package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "MONGO_URI", "MONGO_DB",
	"JWT_SECRET", "RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET", "POSTMARK_API_TOKEN",
	"EMAIL_SENDER", "CORS_ORIGINS", "DEFAULT_LAT", "DEFAULT_LNG",
	"BESTSELLER_LIMIT", "ALLOW_ROLE_SIGNUP", "ADMIN_EMAIL", "ADMIN_PASS", "ADMIN_NAME",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.False(t, cfg.Production())
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "foodapp", cfg.MongoDB)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, 28.6139, cfg.DefaultLat)
	assert.Equal(t, 77.2090, cfg.DefaultLng)
	assert.Equal(t, 10, cfg.BestsellerLimit)
	assert.False(t, cfg.AllowRoleSignup)
	assert.Equal(t, "Admin", cfg.AdminName)
	assert.Empty(t, cfg.JWTSecret)

	err = cfg.ValidateServe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "RAZORPAY_KEY_ID")
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_id")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_test_secret")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example,")
	t.Setenv("BESTSELLER_LIMIT", "-1")
	t.Setenv("ALLOW_ROLE_SIGNUP", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.Production())
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.BestsellerLimit)
	assert.True(t, cfg.AllowRoleSignup)
	assert.NoError(t, cfg.ValidateServe())
}

func TestLoadConfigFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MONGO_DB", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nmongo_db: from-file\nbestseller_limit: 5\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "from-env", cfg.MongoDB)
	assert.Equal(t, 5, cfg.BestsellerLimit)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
