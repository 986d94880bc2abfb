package weather

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mining-etl/internal/models"

	"go.uber.org/zap"
)

// PrecipitationAPI 单日降雨查询
type PrecipitationAPI interface {
	DailyPrecipitation(ctx context.Context, date time.Time) (float64, error)
}

// RainfallFetcher 带缓存的降雨量查询
// 查询失败一律返回 0.0，只记录告警，不向上返回错误
type RainfallFetcher struct {
	api      PrecipitationAPI
	kv       KVStore
	ttl      time.Duration
	keySpace string
	logger   *zap.Logger
}

// NewRainfallFetcher 创建降雨量查询器
// kv 为 nil 时不缓存
func NewRainfallFetcher(api PrecipitationAPI, kv KVStore, location Location, ttl time.Duration, logger *zap.Logger) *RainfallFetcher {
	return &RainfallFetcher{
		api:      api,
		kv:       kv,
		ttl:      ttl,
		keySpace: fmt.Sprintf("mining-etl:rainfall:%.4f:%.4f", location.Latitude, location.Longitude),
		logger:   logger,
	}
}

// RainfallMM 返回指定日期的降雨量（毫米），缺失时为 0.0
func (f *RainfallFetcher) RainfallMM(ctx context.Context, date time.Time) float64 {
	day := date.Format(models.DateLayout)
	key := f.keySpace + ":" + day

	if f.kv != nil {
		if cached, err := f.kv.Get(ctx, key); err == nil {
			if mm, err := strconv.ParseFloat(cached, 64); err == nil {
				return mm
			}
		} else if err != ErrCacheMiss {
			f.logger.Debug("Rainfall cache read failed", zap.String("date", day), zap.Error(err))
		}
	}

	mm, err := f.api.DailyPrecipitation(ctx, date)
	if err != nil {
		f.logger.Warn("Rainfall unavailable, defaulting to 0",
			zap.String("date", day),
			zap.Error(err),
		)
		return 0
	}

	// 只缓存成功的结果，失败的日期下次运行重新查询
	if f.kv != nil {
		if err := f.kv.Set(ctx, key, strconv.FormatFloat(mm, 'f', -1, 64), f.ttl); err != nil {
			f.logger.Debug("Rainfall cache write failed", zap.String("date", day), zap.Error(err))
		}
	}

	f.logger.Debug("Fetched rainfall", zap.String("date", day), zap.Float64("rainfall_mm", mm))
	return mm
}
