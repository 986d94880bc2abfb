package report

import (
	"fmt"

	"mining-etl/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	DailyMetricsSheet = "Daily Metrics"
	AnomaliesSheet    = "Anomalies"
)

// DailyMetricsHeader 日指标表头（与仓库列一致）
var DailyMetricsHeader = []string{
	"date",
	"mine_id",
	"total_production_daily",
	"average_quality_grade",
	"equipment_utilization",
	"equipment_active_hours",
	"equipment_total_hours",
	"total_fuel_consumption",
	"fuel_efficiency",
	"rainfall_mm",
}

// AnomaliesHeader 异常记录表头
var AnomaliesHeader = []string{
	"log_id",
	"date",
	"mine_id",
	"shift",
	"original_tons_extracted",
	"quality_grade",
	"anomaly_flag",
}

// BuildWorkbook 生成日报工作簿，调用方负责 Close
// NULL 值写为空单元格
func BuildWorkbook(metrics []models.DailyProductionMetrics, anomalies []models.ProductionAnomaly) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(DailyMetricsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(AnomaliesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	metricRows := make([][]interface{}, len(metrics))
	for i, m := range metrics {
		metricRows[i] = []interface{}{
			m.Date.Format(models.DateLayout),
			cellInt(m.MineID),
			m.TotalProductionDaily,
			m.AverageQualityGrade,
			cellFloat(m.EquipmentUtilization),
			cellFloat(m.EquipmentActiveHours),
			cellFloat(m.EquipmentTotalHours),
			cellFloat(m.TotalFuelConsumption),
			cellFloat(m.FuelEfficiency),
			cellFloat(m.RainfallMM),
		}
	}
	if err := writeSheet(f, DailyMetricsSheet, DailyMetricsHeader, metricRows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	anomalyRows := make([][]interface{}, len(anomalies))
	for i, a := range anomalies {
		anomalyRows[i] = []interface{}{
			a.LogID,
			a.Date.Format(models.DateLayout),
			a.MineID,
			a.Shift,
			a.OriginalTonsExtracted,
			a.QualityGrade,
			a.AnomalyFlag,
		}
	}
	if err := writeSheet(f, AnomaliesSheet, AnomaliesHeader, anomalyRows, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// WriteDailyMetricsWorkbook 生成日报并保存到 path
func WriteDailyMetricsWorkbook(path string, metrics []models.DailyProductionMetrics, anomalies []models.ProductionAnomaly) error {
	f, err := BuildWorkbook(metrics, anomalies)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, headerStyle int) error {
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("failed to convert column number: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 22); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2) // 第1行是表头
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}
	return nil
}

func cellFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func cellInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
