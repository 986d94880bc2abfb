package models

import "time"

// 任务名（CLI 参数）
const (
	TaskProduction  = "production"
	TaskUtilization = "utilization"
	TaskAll         = "all"
	TaskForecast    = "forecast"
	TaskReport      = "report"
)

// RunSummary 单次运行结果
type RunSummary struct {
	RunID       string         `json:"run_id"`
	Task        string         `json:"task"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	RowsWritten map[string]int `json:"rows_written"`
	Anomalies   int            `json:"anomalies"`
	MAE         *float64       `json:"mae,omitempty"`
	RMSE        *float64       `json:"rmse,omitempty"`
}

// Duration 运行耗时
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
