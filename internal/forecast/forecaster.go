package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"mining-etl/internal/models"

	"go.uber.org/zap"
)

// ErrInsufficientHistory 可用样本不足以训练和测试
var ErrInsufficientHistory = errors.New("not enough daily metrics to train forecast")

// Sample 一个带滞后特征的训练样本
// Features: lag_1..lag_N, rainfall_mm, equipment_utilization, fuel_efficiency
type Sample struct {
	Date     time.Time
	Target   float64
	Features []float64
}

// Result 预测结果
type Result struct {
	Predictions []models.ProductionForecast
	MAE         float64
	RMSE        float64
	TrainSize   int
	TestSize    int
}

// Forecaster 产量预测（下游消费 daily_production_metrics）
type Forecaster struct {
	regressor Regressor
	lags      int
	testDays  int
	logger    *zap.Logger
}

// NewForecaster 创建预测器
func NewForecaster(regressor Regressor, lags, testDays int, logger *zap.Logger) *Forecaster {
	return &Forecaster{
		regressor: regressor,
		lags:      lags,
		testDays:  testDays,
		logger:    logger,
	}
}

// Run 构造滞后特征，最后 testDays 天作为测试集，训练并预测
func (f *Forecaster) Run(rows []models.DailyProductionMetrics) (*Result, error) {
	if f.lags < 1 || f.testDays < 1 {
		return nil, fmt.Errorf("invalid forecast window: lags=%d test_days=%d", f.lags, f.testDays)
	}

	samples := BuildLagSamples(CollapseByDate(rows), f.lags)
	featureCount := f.lags + 3
	if len(samples)-f.testDays < featureCount+1 {
		return nil, fmt.Errorf("%w: %d usable rows, need at least %d",
			ErrInsufficientHistory, len(samples), f.testDays+featureCount+1)
	}

	train := samples[:len(samples)-f.testDays]
	test := samples[len(samples)-f.testDays:]

	if err := f.regressor.Fit(featureMatrix(train), targets(train)); err != nil {
		return nil, fmt.Errorf("failed to fit regressor: %w", err)
	}

	predicted, err := f.regressor.Predict(featureMatrix(test))
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	result := &Result{
		Predictions: make([]models.ProductionForecast, len(test)),
		TrainSize:   len(train),
		TestSize:    len(test),
	}
	var absSum, sqSum float64
	for i, s := range test {
		diff := s.Target - predicted[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		result.Predictions[i] = models.ProductionForecast{
			Date:                s.Date,
			ActualProduction:    s.Target,
			PredictedProduction: predicted[i],
		}
	}
	result.MAE = absSum / float64(len(test))
	result.RMSE = math.Sqrt(sqSum / float64(len(test)))

	f.logger.Info("Forecast evaluated",
		zap.Int("train_samples", result.TrainSize),
		zap.Int("test_samples", result.TestSize),
		zap.Float64("mae", result.MAE),
		zap.Float64("rmse", result.RMSE),
	)

	return result, nil
}

// CollapseByDate 按矿区存储时合并为每日一行
// 产量求和，燃油效率按总油耗 / 总产量重算，其余取当日第一行
func CollapseByDate(rows []models.DailyProductionMetrics) []models.DailyProductionMetrics {
	sorted := append([]models.DailyProductionMetrics(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var out []models.DailyProductionMetrics
	for _, row := range sorted {
		if len(out) > 0 && out[len(out)-1].Date.Equal(row.Date) {
			cur := &out[len(out)-1]
			cur.TotalProductionDaily += row.TotalProductionDaily
			if cur.TotalFuelConsumption != nil && cur.TotalProductionDaily != 0 {
				cur.FuelEfficiency = models.Float64Ptr(*cur.TotalFuelConsumption / cur.TotalProductionDaily)
			}
			continue
		}
		row.MineID = nil
		out = append(out, row)
	}
	return out
}

// BuildLagSamples 生成滞后特征并丢弃含缺失值的行
func BuildLagSamples(rows []models.DailyProductionMetrics, lags int) []Sample {
	var samples []Sample
	for i := lags; i < len(rows); i++ {
		row := rows[i]
		if row.RainfallMM == nil || row.EquipmentUtilization == nil || row.FuelEfficiency == nil {
			continue
		}

		features := make([]float64, 0, lags+3)
		for lag := 1; lag <= lags; lag++ {
			features = append(features, rows[i-lag].TotalProductionDaily)
		}
		features = append(features, *row.RainfallMM, *row.EquipmentUtilization, *row.FuelEfficiency)

		samples = append(samples, Sample{
			Date:     row.Date,
			Target:   row.TotalProductionDaily,
			Features: features,
		})
	}
	return samples
}

func featureMatrix(samples []Sample) [][]float64 {
	out := make([][]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Features
	}
	return out
}

func targets(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Target
	}
	return out
}
