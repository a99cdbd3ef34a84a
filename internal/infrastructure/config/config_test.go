package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"VIDA_APP_NAME":                os.Getenv("VIDA_APP_NAME"),
		"VIDA_APP_ENV":                 os.Getenv("VIDA_APP_ENV"),
		"VIDA_APP_PORT":                os.Getenv("VIDA_APP_PORT"),
		"VIDA_DATABASE_HOST":           os.Getenv("VIDA_DATABASE_HOST"),
		"VIDA_DATABASE_PORT":           os.Getenv("VIDA_DATABASE_PORT"),
		"VIDA_DATABASE_USER":           os.Getenv("VIDA_DATABASE_USER"),
		"VIDA_DATABASE_PASSWORD":       os.Getenv("VIDA_DATABASE_PASSWORD"),
		"VIDA_DATABASE_DBNAME":         os.Getenv("VIDA_DATABASE_DBNAME"),
		"VIDA_DATABASE_SSLMODE":        os.Getenv("VIDA_DATABASE_SSLMODE"),
		"VIDA_DATABASE_MAX_OPEN_CONNS": os.Getenv("VIDA_DATABASE_MAX_OPEN_CONNS"),
		"VIDA_DATABASE_MAX_IDLE_CONNS": os.Getenv("VIDA_DATABASE_MAX_IDLE_CONNS"),
		"VIDA_SOURCE_AGENCY_NUMBER":    os.Getenv("VIDA_SOURCE_AGENCY_NUMBER"),
		"VIDA_SOURCE_PASSWORD":         os.Getenv("VIDA_SOURCE_PASSWORD"),
		"VIDA_SYNC_DEFAULT_BATCH_SIZE": os.Getenv("VIDA_SYNC_DEFAULT_BATCH_SIZE"),
		"VIDA_SYNC_MAX_BATCH_SIZE":     os.Getenv("VIDA_SYNC_MAX_BATCH_SIZE"),
		"VIDA_AUTH_SYNC_SECRET":        os.Getenv("VIDA_AUTH_SYNC_SECRET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "vidahome-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "https://apiweb.inmovilla.com/apiweb/apiweb.php", cfg.Source.BaseURL)
		assert.Equal(t, "https://fotos15.inmovilla.com", cfg.Source.PhotoBaseURL)
		assert.Equal(t, 10, cfg.Sync.DefaultBatchSize)
		assert.Equal(t, 30, cfg.Sync.MaxBatchSize)
		assert.Equal(t, 30, cfg.Registry.RateLimitCalls)
		assert.Len(t, cfg.Registry.BaseURLs, 2)
		assert.Equal(t, "0.0002", cfg.Translation.PricePerKTokens)
		assert.Equal(t, 500, cfg.Translation.MaxSourceChars)
		assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
		assert.Equal(t, 10*time.Minute, cfg.Scheduler.JobTimeout)
	})

	t.Run("loads values from environment variables with VIDA prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("VIDA_APP_NAME", "test-app")
		os.Setenv("VIDA_APP_PORT", "9000")
		os.Setenv("VIDA_DATABASE_HOST", "testdb.local")
		os.Setenv("VIDA_DATABASE_PORT", "5433")
		os.Setenv("VIDA_SOURCE_AGENCY_NUMBER", "4321")
		os.Setenv("VIDA_SOURCE_PASSWORD", "apikey")
		os.Setenv("VIDA_SYNC_DEFAULT_BATCH_SIZE", "5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 4321, cfg.Source.AgencyNumber)
		assert.Equal(t, "apikey", cfg.Source.Password)
		assert.Equal(t, 5, cfg.Sync.DefaultBatchSize)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("VIDA_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("VIDA_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxBatchSize cannot be below DefaultBatchSize", func(t *testing.T) {
		clearEnv()
		os.Setenv("VIDA_SYNC_DEFAULT_BATCH_SIZE", "20")
		os.Setenv("VIDA_SYNC_MAX_BATCH_SIZE", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_batch_size")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("VIDA_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"VIDA_APP_ENV":              os.Getenv("VIDA_APP_ENV"),
		"VIDA_AUTH_SYNC_SECRET":     os.Getenv("VIDA_AUTH_SYNC_SECRET"),
		"VIDA_DATABASE_PASSWORD":    os.Getenv("VIDA_DATABASE_PASSWORD"),
		"VIDA_DATABASE_SSLMODE":     os.Getenv("VIDA_DATABASE_SSLMODE"),
		"VIDA_SOURCE_AGENCY_NUMBER": os.Getenv("VIDA_SOURCE_AGENCY_NUMBER"),
		"VIDA_SOURCE_PASSWORD":      os.Getenv("VIDA_SOURCE_PASSWORD"),
		"VIDA_TRANSLATION_API_KEY":  os.Getenv("VIDA_TRANSLATION_API_KEY"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("VIDA_APP_ENV", "production")
		os.Setenv("VIDA_AUTH_SYNC_SECRET", "this-is-a-very-secure-sync-secret-32chars")
		os.Setenv("VIDA_DATABASE_PASSWORD", "secure-password")
		os.Setenv("VIDA_DATABASE_SSLMODE", "require")
		os.Setenv("VIDA_SOURCE_AGENCY_NUMBER", "1234")
		os.Setenv("VIDA_SOURCE_PASSWORD", "crm-password")
		os.Setenv("VIDA_TRANSLATION_API_KEY", "pplx-key")
	}

	t.Run("requires auth.sync_secret in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("VIDA_AUTH_SYNC_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.sync_secret is required in production")
	})

	t.Run("requires auth.sync_secret at least 32 characters in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("VIDA_AUTH_SYNC_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires source credentials in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("VIDA_SOURCE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "source.agency_number and source.password are required")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("VIDA_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}
