package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Parse reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_PATH", "CONTACT_API_URL", "CONTENT_PATH", "LOG_LEVEL",
		"GIN_MODE", "VISITOR_RETENTION", "ADMIN_USERNAME", "ADMIN_PASSWORD", "HASH_SALT",
	} {
		t.Setenv(key, "")
	}
}

func noEnvFile(t *testing.T) string {
	return "-env=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestParse_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CONTACT_API_URL", "https://relay.example.com")
	t.Setenv("DATABASE_PATH", "/tmp/site.db")
	t.Setenv("VISITOR_RETENTION", "720h")

	cfg, err := Parse([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "https://relay.example.com", cfg.ContactAPIURL)
	assert.Equal(t, "/tmp/site.db", cfg.DatabasePath)
	assert.Equal(t, 720*time.Hour, cfg.Retention)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Debug())
}

func TestParse_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CONTACT_API_URL", "https://env.example.com")

	cfg, err := Parse([]string{noEnvFile(t), "-p", "8081", "-contact-url", "https://flag.example.com", "-db", "flag.db"})
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "https://flag.example.com", cfg.ContactAPIURL)
	assert.Equal(t, "flag.db", cfg.DatabasePath)
}

func TestParse_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse([]string{noEnvFile(t), "-contact-url", "https://relay.example.com"})
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultDBPath, cfg.DatabasePath)
	assert.Equal(t, defaultRetention, cfg.Retention)
	assert.Equal(t, devAdminUsername, cfg.AdminUsername)
	assert.Equal(t, devAdminPassword, cfg.AdminPassword)
	assert.Len(t, cfg.Warnings, 2)
}

func TestParse_MissingContactURL(t *testing.T) {
	clearEnv(t)

	_, err := Parse([]string{noEnvFile(t)})
	assert.ErrorIs(t, err, ErrContactURLRequired)
}

func TestParse_ReleaseModeRequiresAdminCredentials(t *testing.T) {
	clearEnv(t)

	_, err := Parse([]string{noEnvFile(t), "-contact-url", "https://relay.example.com", "-mode", "release"})
	assert.ErrorIs(t, err, ErrAdminCredentials)

	t.Setenv("ADMIN_USERNAME", "owner")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("HASH_SALT", "pepper")
	cfg, err := Parse([]string{noEnvFile(t), "-contact-url", "https://relay.example.com", "-mode", "release"})
	require.NoError(t, err)
	assert.False(t, cfg.Debug())
	assert.Equal(t, "pepper", cfg.HashSalt)
	assert.Empty(t, cfg.Warnings)
}

func TestParse_ReleaseModeWarnsWithoutSalt(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_USERNAME", "owner")
	t.Setenv("ADMIN_PASSWORD", "s3cret")

	cfg, err := Parse([]string{noEnvFile(t), "-contact-url", "https://relay.example.com", "-mode", "release"})
	require.NoError(t, err)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "HASH_SALT")
}

func TestParse_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONTACT_API_URL", "https://relay.example.com")

	_, err := Parse([]string{noEnvFile(t), "-mode", "loud"})
	assert.Error(t, err)

	t.Setenv("PORT", "eighty")
	_, err = Parse([]string{noEnvFile(t)})
	assert.Error(t, err)
}

func TestParse_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that exist, even empty ones.
	require.NoError(t, os.Unsetenv("CONTACT_API_URL"))
	require.NoError(t, os.Unsetenv("CONTENT_PATH"))
	t.Cleanup(func() {
		os.Unsetenv("CONTACT_API_URL")
		os.Unsetenv("CONTENT_PATH")
	})

	path := filepath.Join(t.TempDir(), "site.env")
	require.NoError(t, os.WriteFile(path, []byte("CONTACT_API_URL=https://dotenv.example.com\nCONTENT_PATH=profile.yaml\n"), 0o600))

	cfg, err := Parse([]string{"-env", path})
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.example.com", cfg.ContactAPIURL)
	assert.Equal(t, "profile.yaml", cfg.ContentPath)
}
