package repository

import (
	"context"
	"fmt"

	"mining-etl/internal/models"
)

// 写入策略
const (
	WriteModeReplace = "replace" // 删除旧表后全量写入
	WriteModeUpsert  = "upsert"  // 按键覆盖，保留其他行
)

// ProductionLogRepository 生产日志读取
type ProductionLogRepository interface {
	// ListProductionLogs 读取 production_logs 全表
	ListProductionLogs(ctx context.Context) ([]models.ProductionLogRecord, error)
}

// WarehouseRepository warehouse 输出表读写
// 写入方法按实现的 WriteMode 替换或覆盖目标表
type WarehouseRepository interface {
	WriteDailyMetrics(ctx context.Context, rows []models.DailyProductionMetrics) error
	WriteAnomalies(ctx context.Context, rows []models.ProductionAnomaly) error
	WriteEquipmentUtilization(ctx context.Context, rows []models.EquipmentUtilizationRow) error
	WriteForecast(ctx context.Context, rows []models.ProductionForecast) error

	// ListDailyMetrics 按日期升序读取 daily_production_metrics
	ListDailyMetrics(ctx context.Context) ([]models.DailyProductionMetrics, error)
	// ListAnomalies 读取 production_anomalies
	ListAnomalies(ctx context.Context) ([]models.ProductionAnomaly, error)
}

// ValidateWriteMode 校验写入策略
func ValidateWriteMode(mode string) error {
	switch mode {
	case WriteModeReplace, WriteModeUpsert:
		return nil
	default:
		return fmt.Errorf("unsupported write mode: %s", mode)
	}
}
