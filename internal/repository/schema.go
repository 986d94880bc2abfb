package repository

import (
	"fmt"
	"strings"
)

// 表名
const (
	TableProductionLogs       = "production_logs"
	TableDailyMetrics         = "daily_production_metrics"
	TableAnomalies            = "production_anomalies"
	TableEquipmentUtilization = "equipment_utilization"
	TableForecast             = "production_forecast"
)

// tableSpec 输出表定义
// primaryKey 为空时 upsert 通过 DELETE + INSERT 实现
type tableSpec struct {
	name       string
	columns    []string // 列定义，顺序即写入顺序
	primaryKey []string
	matchKey   []string // upsert 匹配列
}

func (s tableSpec) columnNames() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = strings.Fields(c)[0]
	}
	return names
}

func (s tableSpec) createSQL(ifNotExists bool) string {
	defs := append([]string{}, s.columns...)
	if len(s.primaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(s.primaryKey, ", ")))
	}
	clause := ""
	if ifNotExists {
		clause = "IF NOT EXISTS "
	}
	return fmt.Sprintf("CREATE TABLE %s%s (\n\t%s\n)", clause, s.name, strings.Join(defs, ",\n\t"))
}

func (s tableSpec) dropSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", s.name)
}

func (s tableSpec) insertSQL() string {
	names := s.columnNames()
	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.name, strings.Join(names, ", "), strings.Join(placeholders, ", "))
}

func (s tableSpec) upsertSQL() string {
	if len(s.primaryKey) == 0 {
		return s.insertSQL()
	}
	keys := make(map[string]bool, len(s.primaryKey))
	for _, k := range s.primaryKey {
		keys[k] = true
	}
	var sets []string
	for _, name := range s.columnNames() {
		if !keys[name] {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", name, name))
		}
	}
	return fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s",
		s.insertSQL(), strings.Join(s.primaryKey, ", "), strings.Join(sets, ", "))
}

// deleteMatchSQL 无主键表 upsert 前删除同键旧行
func (s tableSpec) deleteMatchSQL() string {
	conds := make([]string, len(s.matchKey))
	for i, k := range s.matchKey {
		conds[i] = fmt.Sprintf("%s = $%d", k, i+1)
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", s.name, strings.Join(conds, " AND "))
}

var dailyMetricColumns = []string{
	"total_production_daily FLOAT",
	"average_quality_grade FLOAT",
	"equipment_utilization FLOAT",
	"equipment_active_hours FLOAT",
	"equipment_total_hours FLOAT",
	"total_fuel_consumption FLOAT",
	"fuel_efficiency FLOAT",
	"rainfall_mm FLOAT",
}

// dailyMetricsSpec daily_production_metrics；按矿区粒度时增加 mine_id 并使用复合主键
func dailyMetricsSpec(perSite bool) tableSpec {
	if perSite {
		return tableSpec{
			name:       TableDailyMetrics,
			columns:    append([]string{"date DATE", "mine_id INT"}, dailyMetricColumns...),
			primaryKey: []string{"date", "mine_id"},
		}
	}
	return tableSpec{
		name:       TableDailyMetrics,
		columns:    append([]string{"date DATE"}, dailyMetricColumns...),
		primaryKey: []string{"date"},
	}
}

var anomaliesSpec = tableSpec{
	name: TableAnomalies,
	columns: []string{
		"log_id INT",
		"date DATE",
		"mine_id INT",
		"shift VARCHAR(10)",
		"original_tons_extracted FLOAT",
		"quality_grade FLOAT",
		"anomaly_flag BOOLEAN",
	},
	matchKey: []string{"log_id"},
}

var equipmentUtilizationSpec = tableSpec{
	name: TableEquipmentUtilization,
	columns: []string{
		"date DATE",
		"equipment_id INT",
		"equipment_utilization FLOAT",
	},
	primaryKey: []string{"date", "equipment_id"},
}

var forecastSpec = tableSpec{
	name: TableForecast,
	columns: []string{
		"date DATE",
		"actual_production FLOAT",
		"predicted_production FLOAT",
	},
	matchKey: []string{"date"},
}
