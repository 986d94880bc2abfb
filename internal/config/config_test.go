package config

import (
	"os"
	"testing"
	"time"

	"mining-etl/internal/repository"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Database.User != "user" {
		t.Errorf("Expected POSTGRES_USER default 'user', got '%s'", cfg.Database.User)
	}

	if cfg.Database.Password != "pass" {
		t.Errorf("Expected POSTGRES_PASSWORD default 'pass', got '%s'", cfg.Database.Password)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected POSTGRES_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("Expected POSTGRES_PORT default 5432, got %d", cfg.Database.Port)
	}

	if cfg.Database.Database != "warehouse" {
		t.Errorf("Expected POSTGRES_DB default 'warehouse', got '%s'", cfg.Database.Database)
	}

	if cfg.Pipeline.WriteMode != repository.WriteModeReplace {
		t.Errorf("Expected WRITE_MODE default 'replace', got '%s'", cfg.Pipeline.WriteMode)
	}

	if cfg.Pipeline.PerSite {
		t.Errorf("Expected PER_SITE default false")
	}

	if cfg.Weather.Latitude != 2.0167 || cfg.Weather.Longitude != 117.3 {
		t.Errorf("Unexpected default coordinate %f,%f", cfg.Weather.Latitude, cfg.Weather.Longitude)
	}

	if cfg.Weather.Timezone != "Asia/Jakarta" {
		t.Errorf("Expected WEATHER_TIMEZONE default 'Asia/Jakarta', got '%s'", cfg.Weather.Timezone)
	}

	if cfg.Weather.RetryCount != 0 {
		t.Errorf("Expected WEATHER_RETRY_COUNT default 0, got %d", cfg.Weather.RetryCount)
	}

	if cfg.Forecast.TestDays != 30 || cfg.Forecast.Lags != 3 {
		t.Errorf("Unexpected forecast defaults %d/%d", cfg.Forecast.TestDays, cfg.Forecast.Lags)
	}

	if cfg.Notify.Mode != NotifyNone {
		t.Errorf("Expected NOTIFY_MODE default 'none', got '%s'", cfg.Notify.Mode)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "warehouse-db")
	t.Setenv("POSTGRES_PORT", "6432")
	t.Setenv("POSTGRES_USER", "etl")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "mining")
	t.Setenv("PER_SITE", "true")
	t.Setenv("WRITE_MODE", "upsert")
	t.Setenv("WEATHER_TIMEOUT_SECONDS", "5")
	t.Setenv("WEATHER_CACHE", "redis")
	t.Setenv("FORECAST_TEST_DAYS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Database.Host != "warehouse-db" || cfg.Database.Port != 6432 {
		t.Errorf("Unexpected host/port %s:%d", cfg.Database.Host, cfg.Database.Port)
	}

	if cfg.Database.User != "etl" || cfg.Database.Password != "secret" {
		t.Errorf("Unexpected credentials %s/%s", cfg.Database.User, cfg.Database.Password)
	}

	if cfg.Database.Database != "mining" {
		t.Errorf("Expected POSTGRES_DB 'mining', got '%s'", cfg.Database.Database)
	}

	if !cfg.Pipeline.PerSite {
		t.Errorf("Expected PER_SITE true")
	}

	if cfg.Pipeline.WriteMode != repository.WriteModeUpsert {
		t.Errorf("Expected WRITE_MODE 'upsert', got '%s'", cfg.Pipeline.WriteMode)
	}

	if cfg.Weather.Timeout != 5*time.Second {
		t.Errorf("Expected weather timeout 5s, got %s", cfg.Weather.Timeout)
	}

	if cfg.Weather.Cache != CacheRedis {
		t.Errorf("Expected WEATHER_CACHE 'redis', got '%s'", cfg.Weather.Cache)
	}

	if cfg.Forecast.TestDays != 7 {
		t.Errorf("Expected FORECAST_TEST_DAYS 7, got %d", cfg.Forecast.TestDays)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	if value := getEnv("TEST_VAR", "default"); value != "test-value" {
		t.Errorf("Expected 'test-value', got '%s'", value)
	}

	if value := getEnv("NON_EXISTENT_VAR", "default-value"); value != "default-value" {
		t.Errorf("Expected 'default-value', got '%s'", value)
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("BAD_INT", "abc")
	if v := getEnvInt("BAD_INT", 9); v != 9 {
		t.Errorf("Expected fallback 9, got %d", v)
	}
}

func TestLoad_InvalidModes(t *testing.T) {
	cases := map[string]string{
		"WRITE_MODE":    "merge",
		"WEATHER_CACHE": "disk",
		"NOTIFY_MODE":   "kafka",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			os.Clearenv()
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", key, value)
			}
		})
	}
}
