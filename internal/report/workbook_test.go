package report

import (
	"path/filepath"
	"testing"
	"time"

	"mining-etl/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteDailyMetricsWorkbook(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	metrics := []models.DailyProductionMetrics{
		{
			Date:                 day,
			TotalProductionDaily: 100,
			AverageQualityGrade:  65,
			EquipmentUtilization: models.Float64Ptr(45),
			RainfallMM:           models.Float64Ptr(3.5),
		},
	}
	anomalies := []models.ProductionAnomaly{
		{LogID: 7, Date: day, MineID: 1, Shift: "A", OriginalTonsExtracted: -5, QualityGrade: 60, AnomalyFlag: true},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteDailyMetricsWorkbook(path, metrics, anomalies))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DailyMetricsSheet, AnomaliesSheet}, f.GetSheetList())

	rows, err := f.GetRows(DailyMetricsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, DailyMetricsHeader, rows[0])
	assert.Equal(t, "2024-01-01", rows[1][0])
	assert.Equal(t, "", rows[1][1])
	assert.Equal(t, "100", rows[1][2])
	assert.Equal(t, "65", rows[1][3])
	assert.Equal(t, "45", rows[1][4])
	assert.Equal(t, "", rows[1][8])
	assert.Equal(t, "3.5", rows[1][9])

	rows, err = f.GetRows(AnomaliesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, AnomaliesHeader, rows[0])
	assert.Equal(t, []string{"7", "2024-01-01", "1", "A", "-5", "60", "TRUE"}, rows[1])
}

func TestBuildWorkbook_Empty(t *testing.T) {
	f, err := BuildWorkbook(nil, nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(AnomaliesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
