package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registryEnv = []string{
	"REGISTRY_APP_NAME",
	"REGISTRY_APP_ENV",
	"REGISTRY_LOG_LEVEL",
	"REGISTRY_LOG_ERROR_OUTPUT",
	"REGISTRY_STORAGE_DRIVER",
	"REGISTRY_STORAGE_PATH",
	"REGISTRY_STORAGE_PAGE_SIZE",
	"REGISTRY_DATABASE_HOST",
	"REGISTRY_DATABASE_PORT",
	"REGISTRY_DATABASE_PASSWORD",
	"REGISTRY_DATABASE_SSLMODE",
	"REGISTRY_DATABASE_MAX_OPEN_CONNS",
	"REGISTRY_DATABASE_MAX_IDLE_CONNS",
	"REGISTRY_LOOKUP_ENABLED",
	"REGISTRY_LOOKUP_TIMEOUT",
	"REGISTRY_REDIS_ENABLED",
	"REGISTRY_REDIS_TTL",
	"REGISTRY_POLICY_NAME_THRESHOLD",
	"REGISTRY_POLICY_DOCUMENT_ID_THRESHOLD",
	"REGISTRY_POLICY_GUARD_BIRTH_DATE",
	"REGISTRY_OBJECT_STORAGE_ENABLED",
	"REGISTRY_OBJECT_STORAGE_BUCKET",
	"REGISTRY_IMPORT_FALLBACK_CHARSET",
	"REGISTRY_TELEMETRY_ENABLED",
	"REGISTRY_TELEMETRY_SAMPLING_RATIO",
	"REGISTRY_TELEMETRY_DB_TRACING",
}

// isolateEnv clears registry variables for the duration of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(registryEnv))
	for _, k := range registryEnv {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "patient-registry", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "", cfg.Log.ErrorOutput)
		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, "registry.db", cfg.Storage.Path)
		assert.Equal(t, 100, cfg.Storage.PageSize)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "covid", cfg.Database.DBName)
		assert.False(t, cfg.Lookup.Enabled)
		assert.Equal(t, "http://imenator.ru", cfg.Lookup.NameURL)
		assert.Equal(t, "http://www.ufolog.ru", cfg.Lookup.SurnameURL)
		assert.Equal(t, 5*time.Second, cfg.Lookup.Timeout)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
		assert.Equal(t, "8080", cfg.HTTP.Port)
		assert.Equal(t, 59, cfg.Policy.NameThreshold)
		assert.Equal(t, 79, cfg.Policy.DocumentIDThreshold)
		assert.Equal(t, 81, cfg.Policy.BirthDateThreshold)
		assert.False(t, cfg.Policy.GuardBirthDate)
		assert.Equal(t, "/metrics", cfg.Metrics.Path)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.Equal(t, 200*time.Millisecond, cfg.Telemetry.SlowQueryThreshold)
	})

	t.Run("loads values from environment variables with REGISTRY prefix", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_APP_NAME", "covid-test")
		os.Setenv("REGISTRY_LOG_ERROR_OUTPUT", "errors.log")
		os.Setenv("REGISTRY_STORAGE_DRIVER", "csv")
		os.Setenv("REGISTRY_LOOKUP_ENABLED", "true")
		os.Setenv("REGISTRY_LOOKUP_TIMEOUT", "2s")
		os.Setenv("REGISTRY_REDIS_TTL", "1h")
		os.Setenv("REGISTRY_POLICY_NAME_THRESHOLD", "70")
		os.Setenv("REGISTRY_POLICY_GUARD_BIRTH_DATE", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "covid-test", cfg.App.Name)
		assert.Equal(t, "errors.log", cfg.Log.ErrorOutput)
		assert.Equal(t, DriverCSV, cfg.Storage.Driver)
		assert.Equal(t, "patients.csv", cfg.Storage.Path)
		assert.True(t, cfg.Lookup.Enabled)
		assert.Equal(t, 2*time.Second, cfg.Lookup.Timeout)
		assert.Equal(t, time.Hour, cfg.Redis.TTL)
		assert.Equal(t, 70, cfg.Policy.NameThreshold)
		assert.True(t, cfg.Policy.GuardBirthDate)
	})

	t.Run("zero threshold is kept", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_POLICY_DOCUMENT_ID_THRESHOLD", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Policy.DocumentIDThreshold)
	})

	t.Run("rejects unknown storage driver", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_STORAGE_DRIVER", "mongo")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.driver")
	})

	t.Run("rejects threshold above 100", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_POLICY_NAME_THRESHOLD", "101")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "policy.name_threshold")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_DATABASE_MAX_OPEN_CONNS", "4")
		os.Setenv("REGISTRY_DATABASE_MAX_IDLE_CONNS", "8")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("telemetry from environment", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_TELEMETRY_ENABLED", "true")
		os.Setenv("REGISTRY_TELEMETRY_DB_TRACING", "true")
		os.Setenv("REGISTRY_TELEMETRY_SAMPLING_RATIO", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.True(t, cfg.Telemetry.DBTracing)
		assert.Equal(t, 0.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("rejects sampling ratio above 1", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})

	t.Run("requires bucket when object storage is enabled", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_OBJECT_STORAGE_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "object_storage.bucket")

		os.Setenv("REGISTRY_OBJECT_STORAGE_BUCKET", "exports")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "exports", cfg.ObjectStorage.Bucket)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	t.Run("requires database.password for postgres in production", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_APP_ENV", "production")
		os.Setenv("REGISTRY_STORAGE_DRIVER", "postgres")
		os.Setenv("REGISTRY_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL for postgres in production", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_APP_ENV", "production")
		os.Setenv("REGISTRY_STORAGE_DRIVER", "postgres")
		os.Setenv("REGISTRY_DATABASE_PASSWORD", "secure-password")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("sqlite needs no database credentials in production", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("REGISTRY_APP_ENV", "production")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestLoadFrom(t *testing.T) {
	t.Run("reads toml file", func(t *testing.T) {
		isolateEnv(t)
		path := filepath.Join(t.TempDir(), "registry.toml")
		content := `
[storage]
driver = "csv"
path = "/var/lib/registry/patients.csv"

[policy]
name_threshold = 65
guard_birth_date = true

[lookup]
enabled = true
timeout = "3s"

[import]
fallback_charset = "windows-1251"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFrom(path)
		require.NoError(t, err)
		assert.Equal(t, DriverCSV, cfg.Storage.Driver)
		assert.Equal(t, "/var/lib/registry/patients.csv", cfg.Storage.Path)
		assert.Equal(t, 65, cfg.Policy.NameThreshold)
		assert.Equal(t, 79, cfg.Policy.DocumentIDThreshold)
		assert.True(t, cfg.Policy.GuardBirthDate)
		assert.True(t, cfg.Lookup.Enabled)
		assert.Equal(t, 3*time.Second, cfg.Lookup.Timeout)
		assert.Equal(t, "windows-1251", cfg.Import.FallbackCharset)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		isolateEnv(t)
		path := filepath.Join(t.TempDir(), "registry.toml")
		require.NoError(t, os.WriteFile(path, []byte("[storage]\ndriver = \"csv\"\n"), 0o600))
		os.Setenv("REGISTRY_STORAGE_DRIVER", "sqlite")

		cfg, err := LoadFrom(path)
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	})

	t.Run("explicit missing file is an error", func(t *testing.T) {
		isolateEnv(t)

		_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
		require.Error(t, err)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "registry",
			Password: "secret",
			DBName:   "covid",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "registry")
		assert.Contains(t, dsn, "/covid")
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

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
