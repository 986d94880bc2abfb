package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"mining-etl/common/config"
	"mining-etl/internal/repository"
)

// 降雨缓存后端
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// 运行结果通知方式
const (
	NotifyNone  = "none"
	NotifyRedis = "redis"
	NotifyMQTT  = "mqtt"
)

// Config 采矿 ETL 配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	Sources struct {
		SensorsCSVPath string // equipment_sensors.csv 路径
	}

	Pipeline struct {
		// 按 (date, mine_id) 粒度输出日指标
		PerSite   bool
		WriteMode string // replace / upsert
	}

	Weather struct {
		BaseURL    string
		Latitude   float64
		Longitude  float64
		Timezone   string
		Timeout    time.Duration
		RetryCount int
		Cache      string // memory / redis
		CacheTTL   time.Duration
	}

	Forecast struct {
		TestDays int
		Lags     int
	}

	Report struct {
		Path string
	}

	Notify struct {
		Mode   string // none / redis / mqtt
		Stream string
		Topic  string
	}

	Metrics struct {
		PushgatewayURL string
		Job            string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "user"
	cfg.Database.Password = "pass"
	cfg.Database.Database = "warehouse"
	cfg.Database.SSLMode = getEnv("POSTGRES_SSLMODE", "disable")
	cfg.Database.LoadFromEnv("POSTGRES")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Timeout = 5 * time.Second
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "mining-etl"
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Sources.SensorsCSVPath = getEnv("SENSORS_CSV_PATH", "dataset/equipment_sensors.csv")

	cfg.Pipeline.PerSite = getEnv("PER_SITE", "false") == "true"
	cfg.Pipeline.WriteMode = getEnv("WRITE_MODE", repository.WriteModeReplace)

	cfg.Weather.BaseURL = getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com")
	cfg.Weather.Latitude = getEnvFloat("WEATHER_LATITUDE", 2.0167)
	cfg.Weather.Longitude = getEnvFloat("WEATHER_LONGITUDE", 117.3000)
	cfg.Weather.Timezone = getEnv("WEATHER_TIMEZONE", "Asia/Jakarta")
	cfg.Weather.Timeout = time.Duration(getEnvInt("WEATHER_TIMEOUT_SECONDS", 30)) * time.Second
	cfg.Weather.RetryCount = getEnvInt("WEATHER_RETRY_COUNT", 0)
	cfg.Weather.Cache = getEnv("WEATHER_CACHE", CacheMemory)
	cfg.Weather.CacheTTL = time.Duration(getEnvInt("WEATHER_CACHE_TTL_HOURS", 24)) * time.Hour

	cfg.Forecast.TestDays = getEnvInt("FORECAST_TEST_DAYS", 30)
	cfg.Forecast.Lags = getEnvInt("FORECAST_LAGS", 3)

	cfg.Report.Path = getEnv("REPORT_PATH", "daily_production_report.xlsx")

	cfg.Notify.Mode = getEnv("NOTIFY_MODE", NotifyNone)
	cfg.Notify.Stream = getEnv("NOTIFY_STREAM", "mining-etl:runs")
	cfg.Notify.Topic = getEnv("NOTIFY_TOPIC", "mining/etl/runs")

	cfg.Metrics.PushgatewayURL = getEnv("PUSHGATEWAY_URL", "")
	cfg.Metrics.Job = getEnv("PUSHGATEWAY_JOB", "mining_etl")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验枚举类配置
func (c *Config) Validate() error {
	if err := repository.ValidateWriteMode(c.Pipeline.WriteMode); err != nil {
		return err
	}

	switch c.Weather.Cache {
	case CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unsupported weather cache: %s", c.Weather.Cache)
	}

	switch c.Notify.Mode {
	case NotifyNone, NotifyRedis, NotifyMQTT:
	default:
		return fmt.Errorf("unsupported notify mode: %s", c.Notify.Mode)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v >= 0 {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}
