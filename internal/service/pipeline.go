package service

import (
	"context"
	"fmt"
	"time"

	"mining-etl/internal/aggregator"
	"mining-etl/internal/forecast"
	"mining-etl/internal/metrics"
	"mining-etl/internal/models"
	"mining-etl/internal/notify"
	"mining-etl/internal/report"
	"mining-etl/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SensorSource 设备传感器读数来源
type SensorSource interface {
	ReadAll(ctx context.Context) ([]models.EquipmentSensorRecord, error)
}

// Deps Pipeline 依赖
type Deps struct {
	Logs       repository.ProductionLogRepository
	Warehouse  repository.WarehouseRepository
	Sensors    SensorSource
	Rainfall   aggregator.RainfallSource
	Forecaster *forecast.Forecaster
	Notifier   notify.Notifier
	Recorder   *metrics.Recorder
	PerSite    bool
	ReportPath string
}

// Pipeline 批处理 ETL 任务
type Pipeline struct {
	logs       repository.ProductionLogRepository
	warehouse  repository.WarehouseRepository
	sensors    SensorSource
	production *aggregator.ProductionAggregator
	equipment  *aggregator.EquipmentAggregator
	merger     *aggregator.MetricsMerger
	forecaster *forecast.Forecaster
	notifier   notify.Notifier
	recorder   *metrics.Recorder
	reportPath string
	logger     *zap.Logger

	closers []func() error
}

// NewPipeline 创建 Pipeline
func NewPipeline(deps Deps, logger *zap.Logger) *Pipeline {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}

	return &Pipeline{
		logs:       deps.Logs,
		warehouse:  deps.Warehouse,
		sensors:    deps.Sensors,
		production: aggregator.NewProductionAggregator(deps.PerSite, logger),
		equipment:  aggregator.NewEquipmentAggregator(logger),
		merger:     aggregator.NewMetricsMerger(deps.Rainfall, logger),
		forecaster: deps.Forecaster,
		notifier:   notifier,
		recorder:   deps.Recorder,
		reportPath: deps.ReportPath,
		logger:     logger,
	}
}

// ValidTask 是否为支持的任务名
func ValidTask(task string) bool {
	switch task {
	case models.TaskProduction, models.TaskUtilization, models.TaskAll, models.TaskForecast, models.TaskReport:
		return true
	default:
		return false
	}
}

// Run 执行一个任务，成功后发送通知并推送指标
// 通知和指标失败只记录日志
func (p *Pipeline) Run(ctx context.Context, task string) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		RunID:       uuid.NewString(),
		Task:        task,
		StartedAt:   time.Now().UTC(),
		RowsWritten: make(map[string]int),
	}

	logger := p.logger.With(zap.String("run_id", summary.RunID), zap.String("task", task))
	logger.Info("Starting ETL run")

	var err error
	switch task {
	case models.TaskProduction:
		err = p.runProduction(ctx, summary)
	case models.TaskUtilization:
		err = p.runUtilization(ctx, summary)
	case models.TaskAll:
		err = p.runAll(ctx, summary)
	case models.TaskForecast:
		err = p.runForecast(ctx, summary)
	case models.TaskReport:
		err = p.runReport(ctx, summary)
	default:
		err = fmt.Errorf("unknown task: %s", task)
	}
	summary.FinishedAt = time.Now().UTC()
	if err != nil {
		return nil, err
	}

	logger.Info("ETL run completed",
		zap.Duration("duration", summary.Duration()),
		zap.Any("rows_written", summary.RowsWritten),
		zap.Int("anomalies", summary.Anomalies),
	)

	if err := p.notifier.Notify(ctx, summary); err != nil {
		logger.Warn("Failed to publish run summary", zap.Error(err))
	}
	if p.recorder != nil {
		p.recorder.Observe(summary)
		if err := p.recorder.Push(ctx, task); err != nil {
			logger.Warn("Failed to push run metrics", zap.Error(err))
		}
	}

	return summary, nil
}

// runProduction 仅处理生产日志；设备和降雨列写 NULL
func (p *Pipeline) runProduction(ctx context.Context, summary *models.RunSummary) error {
	result, err := p.aggregateProduction(ctx, summary)
	if err != nil {
		return err
	}

	daily, err := aggregator.NewMetricsMerger(nil, p.logger).Merge(ctx, result.Daily, nil)
	if err != nil {
		return err
	}

	if err := p.writeAnomalies(ctx, summary, result.Anomalies); err != nil {
		return err
	}
	return p.writeDailyMetrics(ctx, summary, daily)
}

// runUtilization 仅处理设备传感器
func (p *Pipeline) runUtilization(ctx context.Context, summary *models.RunSummary) error {
	result, err := p.aggregateEquipment(ctx)
	if err != nil {
		return err
	}
	return p.writeUtilization(ctx, summary, result)
}

// runAll 生产 + 设备 + 降雨合并，写入三张表
// 两个数据源都读取并合并成功后才开始写表
func (p *Pipeline) runAll(ctx context.Context, summary *models.RunSummary) error {
	production, err := p.aggregateProduction(ctx, summary)
	if err != nil {
		return err
	}

	equipment, err := p.aggregateEquipment(ctx)
	if err != nil {
		return err
	}

	daily, err := p.merger.Merge(ctx, production.Daily, equipment.Daily)
	if err != nil {
		return fmt.Errorf("failed to merge daily metrics: %w", err)
	}

	if err := p.writeAnomalies(ctx, summary, production.Anomalies); err != nil {
		return err
	}
	if err := p.writeDailyMetrics(ctx, summary, daily); err != nil {
		return err
	}
	return p.writeUtilization(ctx, summary, equipment)
}

// runForecast 基于 daily_production_metrics 训练并写入 production_forecast
func (p *Pipeline) runForecast(ctx context.Context, summary *models.RunSummary) error {
	if p.forecaster == nil {
		return fmt.Errorf("forecaster is not configured")
	}

	rows, err := p.warehouse.ListDailyMetrics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load daily metrics: %w", err)
	}

	result, err := p.forecaster.Run(rows)
	if err != nil {
		return err
	}

	if err := p.warehouse.WriteForecast(ctx, result.Predictions); err != nil {
		return fmt.Errorf("failed to write %s: %w", repository.TableForecast, err)
	}
	summary.RowsWritten[repository.TableForecast] = len(result.Predictions)
	summary.MAE = models.Float64Ptr(result.MAE)
	summary.RMSE = models.Float64Ptr(result.RMSE)
	return nil
}

// runReport 导出日指标和异常记录到 Excel
func (p *Pipeline) runReport(ctx context.Context, summary *models.RunSummary) error {
	rows, err := p.warehouse.ListDailyMetrics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load daily metrics: %w", err)
	}
	anomalies, err := p.warehouse.ListAnomalies(ctx)
	if err != nil {
		return fmt.Errorf("failed to load anomalies: %w", err)
	}

	if err := report.WriteDailyMetricsWorkbook(p.reportPath, rows, anomalies); err != nil {
		return err
	}

	summary.RowsWritten[report.DailyMetricsSheet] = len(rows)
	summary.RowsWritten[report.AnomaliesSheet] = len(anomalies)
	summary.Anomalies = len(anomalies)
	p.logger.Info("Report written", zap.String("path", p.reportPath))
	return nil
}

// aggregateProduction 读取日志并聚合，不写表
func (p *Pipeline) aggregateProduction(ctx context.Context, summary *models.RunSummary) (*aggregator.ProductionResult, error) {
	records, err := p.logs.ListProductionLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load production logs: %w", err)
	}

	result := p.production.Aggregate(records)
	summary.Anomalies = len(result.Anomalies)
	return result, nil
}

// writeAnomalies 有异常时写入 production_anomalies
func (p *Pipeline) writeAnomalies(ctx context.Context, summary *models.RunSummary, anomalies []models.ProductionAnomaly) error {
	if len(anomalies) == 0 {
		p.logger.Info("No production anomalies found")
		return nil
	}

	if err := p.warehouse.WriteAnomalies(ctx, anomalies); err != nil {
		return fmt.Errorf("failed to write %s: %w", repository.TableAnomalies, err)
	}
	summary.RowsWritten[repository.TableAnomalies] = len(anomalies)
	p.logger.Info("Production anomalies recorded", zap.Int("count", len(anomalies)))
	return nil
}

func (p *Pipeline) aggregateEquipment(ctx context.Context) (*aggregator.EquipmentResult, error) {
	records, err := p.sensors.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment sensors: %w", err)
	}
	return p.equipment.Aggregate(records), nil
}

func (p *Pipeline) writeDailyMetrics(ctx context.Context, summary *models.RunSummary, rows []models.DailyProductionMetrics) error {
	if err := p.warehouse.WriteDailyMetrics(ctx, rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", repository.TableDailyMetrics, err)
	}
	summary.RowsWritten[repository.TableDailyMetrics] = len(rows)
	p.logger.Info("Daily production metrics written", zap.Int("row_count", len(rows)))
	return nil
}

func (p *Pipeline) writeUtilization(ctx context.Context, summary *models.RunSummary, result *aggregator.EquipmentResult) error {
	rows := make([]models.EquipmentUtilizationRow, len(result.PerEquipment))
	for i, cell := range result.PerEquipment {
		rows[i] = models.EquipmentUtilizationRow{
			Date:                 cell.Date,
			EquipmentID:          cell.EquipmentID,
			EquipmentUtilization: cell.UtilizationPct,
		}
	}

	if err := p.warehouse.WriteEquipmentUtilization(ctx, rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", repository.TableEquipmentUtilization, err)
	}
	summary.RowsWritten[repository.TableEquipmentUtilization] = len(rows)
	p.logger.Info("Equipment utilization written", zap.Int("row_count", len(rows)))
	return nil
}

// Close 释放 NewPipelineFromConfig 打开的连接
func (p *Pipeline) Close() error {
	var firstErr error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closers = nil
	return firstErr
}
