package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mining-etl/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// pgUndefinedTable relation does not exist
const pgUndefinedTable = "42P01"

// PostgresWarehouse warehouse 的 PostgreSQL 实现
type PostgresWarehouse struct {
	db      *sql.DB
	mode    string
	perSite bool
	logger  *zap.Logger
}

// 确保实现了接口
var (
	_ ProductionLogRepository = (*PostgresWarehouse)(nil)
	_ WarehouseRepository     = (*PostgresWarehouse)(nil)
)

// NewPostgresWarehouse 创建 warehouse Repository
// mode: replace / upsert；perSite 决定 daily_production_metrics 的主键
func NewPostgresWarehouse(db *sql.DB, mode string, perSite bool, logger *zap.Logger) (*PostgresWarehouse, error) {
	if err := ValidateWriteMode(mode); err != nil {
		return nil, err
	}
	return &PostgresWarehouse{
		db:      db,
		mode:    mode,
		perSite: perSite,
		logger:  logger,
	}, nil
}

// ListProductionLogs 读取 production_logs
// tons_extracted 或 quality_grade 为 NULL 的行被跳过
func (r *PostgresWarehouse) ListProductionLogs(ctx context.Context) ([]models.ProductionLogRecord, error) {
	query := `
		SELECT
			log_id,
			date,
			mine_id,
			shift,
			tons_extracted,
			quality_grade
		FROM production_logs
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query production logs: %w", err)
	}
	defer rows.Close()

	var (
		records []models.ProductionLogRecord
		skipped int
	)
	for rows.Next() {
		var rec models.ProductionLogRecord
		var shift sql.NullString
		var tons, quality sql.NullFloat64

		if err := rows.Scan(
			&rec.LogID,
			&rec.Date,
			&rec.MineID,
			&shift,
			&tons,
			&quality,
		); err != nil {
			return nil, fmt.Errorf("failed to scan production log: %w", err)
		}

		if !tons.Valid || !quality.Valid {
			skipped++
			continue
		}
		rec.Shift = shift.String
		rec.TonsExtracted = tons.Float64
		rec.QualityGrade = quality.Float64
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate production logs: %w", err)
	}

	if skipped > 0 {
		r.logger.Warn("Skipped production logs with NULL measurements", zap.Int("skipped", skipped))
	}

	return records, nil
}

// WriteDailyMetrics 写入 daily_production_metrics
func (r *PostgresWarehouse) WriteDailyMetrics(ctx context.Context, rows []models.DailyProductionMetrics) error {
	values := make([][]any, 0, len(rows))
	for _, m := range rows {
		row := []any{m.Date}
		if r.perSite {
			var mineID any
			if m.MineID != nil {
				mineID = *m.MineID
			}
			row = append(row, mineID)
		}
		row = append(row,
			m.TotalProductionDaily,
			m.AverageQualityGrade,
			m.EquipmentUtilization,
			m.EquipmentActiveHours,
			m.EquipmentTotalHours,
			m.TotalFuelConsumption,
			m.FuelEfficiency,
			m.RainfallMM,
		)
		values = append(values, row)
	}
	return r.writeTable(ctx, dailyMetricsSpec(r.perSite), values)
}

// WriteAnomalies 写入 production_anomalies
func (r *PostgresWarehouse) WriteAnomalies(ctx context.Context, rows []models.ProductionAnomaly) error {
	values := make([][]any, 0, len(rows))
	for _, a := range rows {
		values = append(values, []any{
			a.LogID,
			a.Date,
			a.MineID,
			a.Shift,
			a.OriginalTonsExtracted,
			a.QualityGrade,
			a.AnomalyFlag,
		})
	}
	return r.writeTable(ctx, anomaliesSpec, values)
}

// WriteEquipmentUtilization 写入 equipment_utilization
func (r *PostgresWarehouse) WriteEquipmentUtilization(ctx context.Context, rows []models.EquipmentUtilizationRow) error {
	values := make([][]any, 0, len(rows))
	for _, u := range rows {
		values = append(values, []any{u.Date, u.EquipmentID, u.EquipmentUtilization})
	}
	return r.writeTable(ctx, equipmentUtilizationSpec, values)
}

// WriteForecast 写入 production_forecast
func (r *PostgresWarehouse) WriteForecast(ctx context.Context, rows []models.ProductionForecast) error {
	values := make([][]any, 0, len(rows))
	for _, f := range rows {
		values = append(values, []any{f.Date, f.ActualProduction, f.PredictedProduction})
	}
	return r.writeTable(ctx, forecastSpec, values)
}

// writeTable 在一个事务中完成建表与写入
// replace: DROP + CREATE + INSERT；upsert: CREATE IF NOT EXISTS + ON CONFLICT（或 DELETE + INSERT）
func (r *PostgresWarehouse) writeTable(ctx context.Context, spec tableSpec, rows [][]any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", spec.name, err)
	}
	defer tx.Rollback()

	var insertSQL string
	switch r.mode {
	case WriteModeReplace:
		if _, err := tx.ExecContext(ctx, spec.dropSQL()); err != nil {
			return fmt.Errorf("failed to drop %s: %w", spec.name, err)
		}
		if _, err := tx.ExecContext(ctx, spec.createSQL(false)); err != nil {
			return fmt.Errorf("failed to create %s: %w", spec.name, err)
		}
		insertSQL = spec.insertSQL()
	case WriteModeUpsert:
		if _, err := tx.ExecContext(ctx, spec.createSQL(true)); err != nil {
			return fmt.Errorf("failed to create %s: %w", spec.name, err)
		}
		insertSQL = spec.upsertSQL()
	}

	var deleteStmt *sql.Stmt
	if r.mode == WriteModeUpsert && len(spec.primaryKey) == 0 {
		deleteStmt, err = tx.PrepareContext(ctx, spec.deleteMatchSQL())
		if err != nil {
			return fmt.Errorf("failed to prepare delete for %s: %w", spec.name, err)
		}
		defer deleteStmt.Close()
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", spec.name, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if deleteStmt != nil {
			if _, err := deleteStmt.ExecContext(ctx, row[:len(spec.matchKey)]...); err != nil {
				return fmt.Errorf("failed to delete existing row %d in %s: %w", i, spec.name, err)
			}
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, spec.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", spec.name, err)
	}

	r.logger.Info("Wrote warehouse table",
		zap.String("table", spec.name),
		zap.String("mode", r.mode),
		zap.Int("rows", len(rows)),
	)
	return nil
}

// ListDailyMetrics 按日期升序读取 daily_production_metrics
func (r *PostgresWarehouse) ListDailyMetrics(ctx context.Context) ([]models.DailyProductionMetrics, error) {
	mineCol := "NULL::INT AS mine_id"
	order := "date"
	if r.perSite {
		mineCol = "mine_id"
		order = "date, mine_id"
	}
	query := fmt.Sprintf(`
		SELECT
			date,
			%s,
			total_production_daily,
			average_quality_grade,
			equipment_utilization,
			equipment_active_hours,
			equipment_total_hours,
			total_fuel_consumption,
			fuel_efficiency,
			rainfall_mm
		FROM daily_production_metrics
		ORDER BY %s
	`, mineCol, order)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily metrics: %w", err)
	}
	defer rows.Close()

	var out []models.DailyProductionMetrics
	for rows.Next() {
		var m models.DailyProductionMetrics
		var mineID sql.NullInt64
		var total, quality, util, active, hours, fuel, eff, rain sql.NullFloat64

		if err := rows.Scan(
			&m.Date,
			&mineID,
			&total,
			&quality,
			&util,
			&active,
			&hours,
			&fuel,
			&eff,
			&rain,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily metrics: %w", err)
		}

		if mineID.Valid {
			m.MineID = models.Int64Ptr(mineID.Int64)
		}
		m.TotalProductionDaily = total.Float64
		m.AverageQualityGrade = quality.Float64
		m.EquipmentUtilization = nullFloat(util)
		m.EquipmentActiveHours = nullFloat(active)
		m.EquipmentTotalHours = nullFloat(hours)
		m.TotalFuelConsumption = nullFloat(fuel)
		m.FuelEfficiency = nullFloat(eff)
		m.RainfallMM = nullFloat(rain)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily metrics: %w", err)
	}

	return out, nil
}

// ListAnomalies 读取 production_anomalies
func (r *PostgresWarehouse) ListAnomalies(ctx context.Context) ([]models.ProductionAnomaly, error) {
	query := `
		SELECT
			log_id,
			date,
			mine_id,
			shift,
			original_tons_extracted,
			quality_grade,
			anomaly_flag
		FROM production_anomalies
		ORDER BY date, log_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		// 从未检出过异常时表不存在
		if isUndefinedTable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer rows.Close()

	var out []models.ProductionAnomaly
	for rows.Next() {
		var a models.ProductionAnomaly
		var shift sql.NullString
		if err := rows.Scan(
			&a.LogID,
			&a.Date,
			&a.MineID,
			&shift,
			&a.OriginalTonsExtracted,
			&a.QualityGrade,
			&a.AnomalyFlag,
		); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.Shift = shift.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anomalies: %w", err)
	}

	return out, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float64Ptr(v.Float64)
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUndefinedTable
}
