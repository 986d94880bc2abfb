package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"mining-etl/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T, mode string, perSite bool) (*sql.DB, sqlmock.Sqlmock, *PostgresWarehouse) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo, err := NewPostgresWarehouse(db, mode, perSite, zap.NewNop())
	require.NoError(t, err)

	return db, mock, repo
}

func date(s string) time.Time {
	t, _ := time.Parse(models.DateLayout, s)
	return t
}

func TestNewPostgresWarehouse_InvalidMode(t *testing.T) {
	_, err := NewPostgresWarehouse(nil, "append", false, zap.NewNop())
	assert.Error(t, err)
}

func TestListProductionLogs_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t, WriteModeReplace, false)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"log_id", "date", "mine_id", "shift", "tons_extracted", "quality_grade"}).
		AddRow(1, date("2024-01-01"), 1, "day", -5.0, 60.0).
		AddRow(2, date("2024-01-01"), 1, nil, 100.0, 70.0).
		AddRow(3, date("2024-01-02"), 2, "night", nil, 70.0)

	mock.ExpectQuery(`FROM production_logs`).WillReturnRows(rows)

	logs, err := repo.ListProductionLogs(context.Background())

	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, int64(1), logs[0].LogID)
	assert.Equal(t, -5.0, logs[0].TonsExtracted)
	assert.Equal(t, "day", logs[0].Shift)
	assert.Equal(t, "", logs[1].Shift)
	assert.Equal(t, date("2024-01-01"), logs[1].Date)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductionLogs_QueryError(t *testing.T) {
	db, mock, repo := setupMockDB(t, WriteModeReplace, false)
	defer db.Close()

	mock.ExpectQuery(`FROM production_logs`).WillReturnError(errors.New("relation does not exist"))

	_, err := repo.ListProductionLogs(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query production logs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteDailyMetrics_Replace(t *testing.T) {
	db, mock, repo := setupMockDB(t, WriteModeReplace, false)
	defer db.Close()

	rows := []models.DailyProductionMetrics{
		{
			Date:                 date("2024-01-01"),
			TotalProductionDaily: 100,
			AverageQualityGrade:  65,
			EquipmentUtilization: models.Float64Ptr(40),
			EquipmentActiveHours: models.Float64Ptr(4),
			EquipmentTotalHours:  models.Float64Ptr(10),
			TotalFuelConsumption: models.Float64Ptr(250),
			FuelEfficiency:       models.Float64Ptr(2.5),
			RainfallMM:           models.Float64Ptr(12),
		},
		{
			Date:                 date("2024-01-02"),
			TotalProductionDaily: 0,
			AverageQualityGrade:  50,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS daily_production_metrics`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE daily_production_metrics \(`).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(`INSERT INTO daily_production_metrics \(date, total_production_daily`)
	prep.ExpectExec().
		WithArgs(date("2024-01-01"), 100.0, 65.0, 40.0, 4.0, 10.0, 250.0, 2.5, 12.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(date("2024-01-02"), 0.0, 50.0, nil, nil, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WriteDailyMetrics(context.Background(), rows)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteDailyMetrics_PerSiteUpsert(t *testing.T) {
	db, mock, repo := setupMockDB(t, WriteModeUpsert, true)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS daily_production_metrics \(\s+date DATE,\s+mine_id INT,`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(`ON CONFLICT \(date, mine_id\) DO UPDATE SET total_production_daily = EXCLUDED.total_production_daily`)
	prep.ExpectExec().
		WithArgs(date("2024-01-01"), int64(7), 10.0, 60.0, nil, nil, nil, nil, nil, 1.5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WriteDailyMetrics(context.Background(), []models.DailyProductionMetrics{{
		Date:                 date("2024-01-01"),
		MineID:               models.Int64Ptr(7),
		TotalProductionDaily: 10,
		AverageQualityGrade:  60,
		RainfallMM:           models.Float64Ptr(1.5),
	}})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteAnomalies_UpsertDeletesThenInserts(t *testing.T) {
	db, mock, repo := setupMockDB(t, WriteModeUpsert, false)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS production_anomalies`).WillReturnResult(sqlmock.NewResult(0, 0))
	del := mock.ExpectPrepare(`DELETE FROM production_anomalies WHERE log_id = \$1`)
	ins := mock.ExpectPrepare(`INSERT INTO production_anomalies \(log_id, date, mine_id, shift, original_tons_extracted, quality_grade, anomaly_flag\)`)
	del.ExpectExec().WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	ins.ExpectExec().
		WithArgs(int64(1), date("2024-01-01"), int64(1), "day", -5.0, 60.0, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WriteAnomalies(context.Background(), []models.ProductionAnomaly{{
		LogID: 1, Date: date("2024-01-01"), MineID: 1, Shift: "day",
		OriginalTonsExtracted: -5, QualityGrade: 60, AnomalyFlag: true,
	}})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteEquipmentUtilization_InsertFailureRollsBack(t *testing.T) {
	db, mock, repo := setupMockDB(t, WriteModeReplace, false)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS equipment_utilization`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`(?s)CREATE TABLE equipment_utilization \(.*PRIMARY KEY \(date, equipment_id\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(`INSERT INTO equipment_utilization`)
	prep.ExpectExec().WithArgs(date("2024-01-01"), int64(3), 40.0).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.WriteEquipmentUtilization(context.Background(), []models.EquipmentUtilizationRow{
		{Date: date("2024-01-01"), EquipmentID: 3, EquipmentUtilization: 40},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "equipment_utilization")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteForecast_Replace(t *testing.T) {
	db, mock, repo := setupMockDB(t, WriteModeReplace, false)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS production_forecast`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE production_forecast`).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(`INSERT INTO production_forecast \(date, actual_production, predicted_production\)`)
	prep.ExpectExec().WithArgs(date("2024-02-01"), 120.0, 118.5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.WriteForecast(context.Background(), []models.ProductionForecast{
		{Date: date("2024-02-01"), ActualProduction: 120, PredictedProduction: 118.5},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDailyMetrics_NullColumns(t *testing.T) {
	db, mock, repo := setupMockDB(t, WriteModeReplace, false)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"date", "mine_id", "total_production_daily", "average_quality_grade",
		"equipment_utilization", "equipment_active_hours", "equipment_total_hours",
		"total_fuel_consumption", "fuel_efficiency", "rainfall_mm",
	}).
		AddRow(date("2024-01-01"), nil, 100.0, 65.0, 40.0, 4.0, 10.0, 250.0, 2.5, 12.0).
		AddRow(date("2024-01-02"), nil, 0.0, 50.0, nil, nil, nil, nil, nil, 0.0)

	mock.ExpectQuery(`FROM daily_production_metrics\s+ORDER BY date`).WillReturnRows(rows)

	metrics, err := repo.ListDailyMetrics(context.Background())

	require.NoError(t, err)
	require.Len(t, metrics, 2)
	assert.Nil(t, metrics[0].MineID)
	require.NotNil(t, metrics[0].FuelEfficiency)
	assert.Equal(t, 2.5, *metrics[0].FuelEfficiency)
	assert.Nil(t, metrics[1].EquipmentUtilization)
	assert.Nil(t, metrics[1].FuelEfficiency)
	require.NotNil(t, metrics[1].RainfallMM)
	assert.Equal(t, 0.0, *metrics[1].RainfallMM)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAnomalies_MissingTable(t *testing.T) {
	db, mock, repo := setupMockDB(t, WriteModeReplace, false)
	defer db.Close()

	mock.ExpectQuery(`FROM production_anomalies`).WillReturnError(&pq.Error{Code: "42P01"})

	anomalies, err := repo.ListAnomalies(context.Background())

	require.NoError(t, err)
	assert.Empty(t, anomalies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableSpec_CreateSQL(t *testing.T) {
	sqlText := anomaliesSpec.createSQL(true)
	assert.Contains(t, sqlText, "CREATE TABLE IF NOT EXISTS production_anomalies")
	assert.Contains(t, sqlText, "shift VARCHAR(10)")
	assert.Contains(t, sqlText, "anomaly_flag BOOLEAN")
	assert.NotContains(t, sqlText, "PRIMARY KEY")

	daily := dailyMetricsSpec(false).createSQL(false)
	assert.Contains(t, daily, "PRIMARY KEY (date)")
	assert.NotContains(t, daily, "mine_id")
}
