package models

import "time"

// DailyProductionMetrics daily_production_metrics 表的一行
// 指针字段为 nil 表示 NULL（左连接缺失或无法计算）
type DailyProductionMetrics struct {
	Date                 time.Time `json:"date"`
	MineID               *int64    `json:"mine_id,omitempty"`
	TotalProductionDaily float64   `json:"total_production_daily"`
	AverageQualityGrade  float64   `json:"average_quality_grade"`
	EquipmentUtilization *float64  `json:"equipment_utilization"`
	EquipmentActiveHours *float64  `json:"equipment_active_hours"`
	EquipmentTotalHours  *float64  `json:"equipment_total_hours"`
	TotalFuelConsumption *float64  `json:"total_fuel_consumption"`
	FuelEfficiency       *float64  `json:"fuel_efficiency"`
	RainfallMM           *float64  `json:"rainfall_mm"`
}

// ProductionForecast production_forecast 表的一行
type ProductionForecast struct {
	Date                time.Time `json:"date"`
	ActualProduction    float64   `json:"actual_production"`
	PredictedProduction float64   `json:"predicted_production"`
}

// EquipmentUtilizationRow equipment_utilization 表的一行
type EquipmentUtilizationRow struct {
	Date                 time.Time `json:"date"`
	EquipmentID          int64     `json:"equipment_id"`
	EquipmentUtilization float64   `json:"equipment_utilization"`
}

// Float64Ptr 返回 v 的指针
func Float64Ptr(v float64) *float64 {
	return &v
}

// Int64Ptr 返回 v 的指针
func Int64Ptr(v int64) *int64 {
	return &v
}
