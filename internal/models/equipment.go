package models

import "time"

// StatusActive 设备运行状态
const StatusActive = "active"

// EquipmentSensorRecord equipment_sensors.csv 的一行
type EquipmentSensorRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	EquipmentID     int64     `json:"equipment_id"`
	Status          string    `json:"status"`
	FuelConsumption float64   `json:"fuel_consumption"`
}

// Date 读数所在的日历日（UTC 零点）
func (r EquipmentSensorRecord) Date() time.Time {
	return TruncateDay(r.Timestamp)
}

// DailyEquipmentAggregate 单台设备的日聚合
// Imputed 表示该行由前向填充得到，而非当日读数
type DailyEquipmentAggregate struct {
	Date                 time.Time `json:"date"`
	EquipmentID          int64     `json:"equipment_id"`
	ActiveHours          float64   `json:"active_hours"`
	TotalHours           float64   `json:"total_hours"`
	FuelConsumptionTotal float64   `json:"fuel_consumption_total"`
	UtilizationPct       float64   `json:"utilization_pct"`
	Imputed              bool      `json:"imputed"`
}

// DailyEquipmentRollup 全部设备按日汇总
type DailyEquipmentRollup struct {
	Date                 time.Time `json:"date"`
	UtilizationPct       float64   `json:"utilization_pct"`
	ActiveHours          float64   `json:"active_hours"`
	TotalHours           float64   `json:"total_hours"`
	FuelConsumptionTotal float64   `json:"fuel_consumption_total"`
}

// TruncateDay 取日历日，保留原时区的年月日
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
