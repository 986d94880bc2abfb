package models

import "time"

// DateLayout 日期格式（warehouse DATE / API 参数）
const DateLayout = "2006-01-02"

// ProductionLogRecord production_logs 原始记录
// tons_extracted 可能为负数（无效数据），记录本身不会被原地修改
type ProductionLogRecord struct {
	LogID         int64     `json:"log_id"`
	Date          time.Time `json:"date"`
	MineID        int64     `json:"mine_id"`
	Shift         string    `json:"shift"`
	TonsExtracted float64   `json:"tons_extracted"`
	QualityGrade  float64   `json:"quality_grade"`
}

// ProductionAnomaly 负产量记录的修正前快照
type ProductionAnomaly struct {
	LogID                 int64     `json:"log_id"`
	Date                  time.Time `json:"date"`
	MineID                int64     `json:"mine_id"`
	Shift                 string    `json:"shift"`
	OriginalTonsExtracted float64   `json:"original_tons_extracted"`
	QualityGrade          float64   `json:"quality_grade"`
	AnomalyFlag           bool      `json:"anomaly_flag"`
}

// DailyProductionPartial 生产日聚合（合并前）
// MineID 仅在按矿区粒度聚合时有值
type DailyProductionPartial struct {
	Date                 time.Time `json:"date"`
	MineID               *int64    `json:"mine_id,omitempty"`
	TotalProductionDaily float64   `json:"total_production_daily"`
	AverageQualityGrade  float64   `json:"average_quality_grade"`
}
