package service

import (
	"context"
	"fmt"

	"mining-etl/common/database"
	mqttcommon "mining-etl/common/mqtt"
	rediscommon "mining-etl/common/redis"
	"mining-etl/internal/config"
	"mining-etl/internal/forecast"
	"mining-etl/internal/ingest"
	"mining-etl/internal/metrics"
	"mining-etl/internal/notify"
	"mining-etl/internal/repository"
	"mining-etl/internal/weather"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NewPipelineFromConfig 按配置连接 Postgres / Redis / MQTT 并组装 Pipeline
// 调用方负责 Close
func NewPipelineFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	var closers []func() error
	fail := func(err error) (*Pipeline, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return nil, err
	}

	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closers = append(closers, func() error { return database.Close(db) })

	warehouse, err := repository.NewPostgresWarehouse(db, cfg.Pipeline.WriteMode, cfg.Pipeline.PerSite, logger)
	if err != nil {
		return fail(err)
	}

	// Redis 只在降雨缓存或通知需要时连接
	var redisClient *redis.Client
	if cfg.Weather.Cache == config.CacheRedis || cfg.Notify.Mode == config.NotifyRedis {
		redisClient = rediscommon.NewRedisClient(&cfg.Redis)
		closers = append(closers, func() error { return rediscommon.Close(redisClient) })
		if err := rediscommon.Ping(ctx, redisClient); err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
	}

	var kv weather.KVStore
	switch cfg.Weather.Cache {
	case config.CacheRedis:
		kv = weather.NewRedisKVStore(redisClient)
	case config.CacheMemory:
		kv = weather.NewMemoryKVStore()
	default:
		return fail(fmt.Errorf("unsupported weather cache: %s", cfg.Weather.Cache))
	}

	location := weather.Location{
		Latitude:  cfg.Weather.Latitude,
		Longitude: cfg.Weather.Longitude,
		Timezone:  cfg.Weather.Timezone,
	}
	api := weather.NewClient(cfg.Weather.BaseURL, location, cfg.Weather.Timeout, cfg.Weather.RetryCount, logger)
	rainfall := weather.NewRainfallFetcher(api, kv, location, cfg.Weather.CacheTTL, logger)

	var notifier notify.Notifier
	switch cfg.Notify.Mode {
	case config.NotifyNone:
		notifier = notify.NopNotifier{}
	case config.NotifyRedis:
		notifier = notify.NewStreamNotifier(redisClient, cfg.Notify.Stream, logger)
	case config.NotifyMQTT:
		client, err := mqttcommon.NewClient(&cfg.MQTT)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() error { client.Disconnect(); return nil })
		notifier = notify.NewMQTTNotifier(client, cfg.Notify.Topic, logger)
	default:
		return fail(fmt.Errorf("unsupported notify mode: %s", cfg.Notify.Mode))
	}

	p := NewPipeline(Deps{
		Logs:       warehouse,
		Warehouse:  warehouse,
		Sensors:    ingest.NewSensorCSVReader(cfg.Sources.SensorsCSVPath, logger),
		Rainfall:   rainfall,
		Forecaster: forecast.NewForecaster(forecast.NewLinearRegressor(0), cfg.Forecast.Lags, cfg.Forecast.TestDays, logger),
		Notifier:   notifier,
		Recorder:   metrics.NewRecorder(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, logger),
		PerSite:    cfg.Pipeline.PerSite,
		ReportPath: cfg.Report.Path,
	}, logger)
	p.closers = closers
	return p, nil
}
