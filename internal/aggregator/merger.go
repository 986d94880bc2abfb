package aggregator

import (
	"context"
	"time"

	"mining-etl/internal/models"

	"go.uber.org/zap"
)

// RainfallSource 按日期提供降雨量（毫米）
// 实现自行处理缺失数据，调用方不处理错误
type RainfallSource interface {
	RainfallMM(ctx context.Context, date time.Time) float64
}

// MetricsMerger 合并生产、设备与降雨数据
type MetricsMerger struct {
	rainfall RainfallSource
	logger   *zap.Logger
}

// NewMetricsMerger 创建合并器；rainfall 为 nil 时降雨列保持 NULL
func NewMetricsMerger(rainfall RainfallSource, logger *zap.Logger) *MetricsMerger {
	return &MetricsMerger{
		rainfall: rainfall,
		logger:   logger,
	}
}

// Merge 以生产日聚合为左表，按日期左连接设备汇总与降雨量
// 每个日期只查询一次降雨
func (m *MetricsMerger) Merge(
	ctx context.Context,
	production []models.DailyProductionPartial,
	equipment []models.DailyEquipmentRollup,
) ([]models.DailyProductionMetrics, error) {
	byDate := make(map[time.Time]models.DailyEquipmentRollup, len(equipment))
	for _, e := range equipment {
		byDate[models.TruncateDay(e.Date)] = e
	}

	rainfall := make(map[time.Time]float64)
	out := make([]models.DailyProductionMetrics, 0, len(production))

	for _, p := range production {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		day := models.TruncateDay(p.Date)
		row := models.DailyProductionMetrics{
			Date:                 day,
			MineID:               p.MineID,
			TotalProductionDaily: p.TotalProductionDaily,
			AverageQualityGrade:  p.AverageQualityGrade,
		}

		if e, ok := byDate[day]; ok {
			row.EquipmentUtilization = models.Float64Ptr(e.UtilizationPct)
			row.EquipmentActiveHours = models.Float64Ptr(e.ActiveHours)
			row.EquipmentTotalHours = models.Float64Ptr(e.TotalHours)
			row.TotalFuelConsumption = models.Float64Ptr(e.FuelConsumptionTotal)
			row.FuelEfficiency = FuelEfficiency(e.FuelConsumptionTotal, p.TotalProductionDaily)
		}

		if m.rainfall != nil {
			mm, ok := rainfall[day]
			if !ok {
				mm = m.rainfall.RainfallMM(ctx, day)
				rainfall[day] = mm
			}
			row.RainfallMM = models.Float64Ptr(mm)
		}

		out = append(out, row)
	}

	m.logger.Debug("Merged daily metrics",
		zap.Int("row_count", len(out)),
		zap.Int("rainfall_lookups", len(rainfall)),
	)

	return out, nil
}

// FuelEfficiency 油耗 / 产量；产量为 0 时返回 nil（写入 NULL）
func FuelEfficiency(fuel, production float64) *float64 {
	if production == 0 {
		return nil
	}
	return models.Float64Ptr(fuel / production)
}
