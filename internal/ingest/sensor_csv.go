package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"mining-etl/internal/models"

	"go.uber.org/zap"
)

// 支持的时间戳格式
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	models.DateLayout,
}

var requiredSensorColumns = []string{"timestamp", "equipment_id", "status", "fuel_consumption"}

// Result 读取统计
type Result struct {
	Total   int
	Success int
	Failed  int
	Errors  []string
}

// SensorCSVReader equipment_sensors.csv 读取器
type SensorCSVReader struct {
	path   string
	logger *zap.Logger
}

// NewSensorCSVReader 创建读取器
func NewSensorCSVReader(path string, logger *zap.Logger) *SensorCSVReader {
	return &SensorCSVReader{
		path:   path,
		logger: logger,
	}
}

// ReadAll 读取整个文件
// 文件不存在或表头缺列时返回错误；单行解析失败只计数并跳过
func (r *SensorCSVReader) ReadAll(ctx context.Context) ([]models.EquipmentSensorRecord, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sensor csv: %w", err)
	}
	defer f.Close()

	records, result, err := ParseSensorCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", r.path, err)
	}

	if result.Failed > 0 {
		r.logger.Warn("Skipped malformed sensor rows",
			zap.String("path", r.path),
			zap.Int("failed", result.Failed),
			zap.Strings("errors", firstN(result.Errors, 10)),
		)
	}

	r.logger.Info("Loaded equipment sensor readings",
		zap.String("path", r.path),
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
	)

	return records, nil
}

// ParseSensorCSV 逐行解析传感器 CSV
func ParseSensorCSV(ctx context.Context, stream io.Reader) ([]models.EquipmentSensorRecord, *Result, error) {
	reader := csv.NewReader(stream)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &Result{}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, result, nil
		}
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	headerMap := make(map[string]int, len(headers))
	for i, h := range headers {
		headerMap[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredSensorColumns {
		if _, ok := headerMap[col]; !ok {
			return nil, nil, fmt.Errorf("missing required csv header: %s", col)
		}
	}

	var records []models.EquipmentSensorRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.Total++
		line := result.Total + 1 // 表头占第 1 行
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("csv read error at line %d: %v", line, err))
			continue
		}

		rec, err := parseSensorRow(row, headerMap)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		records = append(records, rec)
		result.Success++
	}

	return records, result, nil
}

func parseSensorRow(row []string, headerMap map[string]int) (models.EquipmentSensorRecord, error) {
	get := func(col string) string {
		if idx, ok := headerMap[col]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	ts, err := parseTimestamp(get("timestamp"))
	if err != nil {
		return models.EquipmentSensorRecord{}, err
	}

	idStr := get("equipment_id")
	equipmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		// 兼容 "3.0" 这类浮点写法
		f, ferr := strconv.ParseFloat(idStr, 64)
		if ferr != nil || f != float64(int64(f)) {
			return models.EquipmentSensorRecord{}, fmt.Errorf("invalid equipment_id: %q", idStr)
		}
		equipmentID = int64(f)
	}

	var fuel float64
	if fuelStr := get("fuel_consumption"); fuelStr != "" {
		fuel, err = strconv.ParseFloat(fuelStr, 64)
		if err != nil {
			return models.EquipmentSensorRecord{}, fmt.Errorf("invalid fuel_consumption: %q", fuelStr)
		}
	}

	return models.EquipmentSensorRecord{
		Timestamp:       ts,
		EquipmentID:     equipmentID,
		Status:          get("status"),
		FuelConsumption: fuel,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp format: %q", s)
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
