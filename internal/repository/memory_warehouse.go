package repository

import (
	"context"
	"sort"
	"sync"

	"mining-etl/internal/models"
)

// MemoryWarehouse 内存实现（用于测试和本地试跑）
type MemoryWarehouse struct {
	mu   sync.Mutex
	mode string

	productionLogs []models.ProductionLogRecord
	dailyMetrics   []models.DailyProductionMetrics
	anomalies      []models.ProductionAnomaly
	utilization    []models.EquipmentUtilizationRow
	forecast       []models.ProductionForecast

	// 各表写入次数
	writes map[string]int
}

var (
	_ ProductionLogRepository = (*MemoryWarehouse)(nil)
	_ WarehouseRepository     = (*MemoryWarehouse)(nil)
)

// NewMemoryWarehouse 创建内存 warehouse
func NewMemoryWarehouse(mode string) (*MemoryWarehouse, error) {
	if err := ValidateWriteMode(mode); err != nil {
		return nil, err
	}
	return &MemoryWarehouse{mode: mode, writes: make(map[string]int)}, nil
}

// SeedProductionLogs 设置 production_logs 内容
func (m *MemoryWarehouse) SeedProductionLogs(records []models.ProductionLogRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.productionLogs = append([]models.ProductionLogRecord(nil), records...)
}

// Writes 返回某表被写入的次数
func (m *MemoryWarehouse) Writes(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[table]
}

// EquipmentUtilization 返回 equipment_utilization 当前内容
func (m *MemoryWarehouse) EquipmentUtilization() []models.EquipmentUtilizationRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.EquipmentUtilizationRow(nil), m.utilization...)
}

// Forecast 返回 production_forecast 当前内容
func (m *MemoryWarehouse) Forecast() []models.ProductionForecast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ProductionForecast(nil), m.forecast...)
}

func (m *MemoryWarehouse) ListProductionLogs(ctx context.Context) ([]models.ProductionLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ProductionLogRecord(nil), m.productionLogs...), nil
}

func (m *MemoryWarehouse) WriteDailyMetrics(ctx context.Context, rows []models.DailyProductionMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyMetrics = mergeRows(m.mode, m.dailyMetrics, rows, func(r models.DailyProductionMetrics) any {
		var mine int64 = -1
		if r.MineID != nil {
			mine = *r.MineID
		}
		return [2]any{r.Date.Unix(), mine}
	})
	m.writes[TableDailyMetrics]++
	return nil
}

func (m *MemoryWarehouse) WriteAnomalies(ctx context.Context, rows []models.ProductionAnomaly) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.anomalies = mergeRows(m.mode, m.anomalies, rows, func(r models.ProductionAnomaly) any { return r.LogID })
	m.writes[TableAnomalies]++
	return nil
}

func (m *MemoryWarehouse) WriteEquipmentUtilization(ctx context.Context, rows []models.EquipmentUtilizationRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.utilization = mergeRows(m.mode, m.utilization, rows, func(r models.EquipmentUtilizationRow) any {
		return [2]int64{r.Date.Unix(), r.EquipmentID}
	})
	m.writes[TableEquipmentUtilization]++
	return nil
}

func (m *MemoryWarehouse) WriteForecast(ctx context.Context, rows []models.ProductionForecast) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecast = mergeRows(m.mode, m.forecast, rows, func(r models.ProductionForecast) any { return r.Date.Unix() })
	m.writes[TableForecast]++
	return nil
}

func (m *MemoryWarehouse) ListDailyMetrics(ctx context.Context) ([]models.DailyProductionMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.DailyProductionMetrics(nil), m.dailyMetrics...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *MemoryWarehouse) ListAnomalies(ctx context.Context) ([]models.ProductionAnomaly, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ProductionAnomaly(nil), m.anomalies...), nil
}

// mergeRows replace 模式直接替换；upsert 模式按键覆盖
func mergeRows[T any](mode string, existing, incoming []T, key func(T) any) []T {
	if mode == WriteModeReplace {
		return append([]T(nil), incoming...)
	}

	index := make(map[any]int, len(existing))
	out := append([]T(nil), existing...)
	for i, row := range out {
		index[key(row)] = i
	}
	for _, row := range incoming {
		k := key(row)
		if i, ok := index[k]; ok {
			out[i] = row
			continue
		}
		index[k] = len(out)
		out = append(out, row)
	}
	return out
}
