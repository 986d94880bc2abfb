package aggregator

import (
	"sort"
	"strings"
	"time"

	"mining-etl/internal/models"

	"go.uber.org/zap"
)

// EquipmentResult 设备传感器聚合结果
type EquipmentResult struct {
	PerEquipment []models.DailyEquipmentAggregate // 补全后的 date × equipment 网格
	Daily        []models.DailyEquipmentRollup    // 按日汇总
}

// EquipmentAggregator 设备利用率聚合
type EquipmentAggregator struct {
	logger *zap.Logger
}

// NewEquipmentAggregator 创建设备聚合器
func NewEquipmentAggregator(logger *zap.Logger) *EquipmentAggregator {
	return &EquipmentAggregator{logger: logger}
}

// Aggregate 分组 -> 前向填充 -> 按日汇总
func (a *EquipmentAggregator) Aggregate(records []models.EquipmentSensorRecord) *EquipmentResult {
	grouped := GroupSensorReadings(records)
	filled := FillGaps(grouped)
	daily := RollupDaily(filled)

	a.logger.Debug("Aggregated equipment sensor readings",
		zap.Int("record_count", len(records)),
		zap.Int("observed_cells", len(grouped)),
		zap.Int("filled_cells", len(filled)-len(grouped)),
		zap.Int("day_count", len(daily)),
	)

	return &EquipmentResult{
		PerEquipment: filled,
		Daily:        daily,
	}
}

type equipmentKey struct {
	date        time.Time
	equipmentID int64
}

// GroupSensorReadings 按 (date, equipment_id) 统计
// active_hours = status 为 active 的读数条数，total_hours = 读数条数
func GroupSensorReadings(records []models.EquipmentSensorRecord) []models.DailyEquipmentAggregate {
	sorted := make([]models.EquipmentSensorRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.EquipmentID != b.EquipmentID {
			return a.EquipmentID < b.EquipmentID
		}
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		return a.FuelConsumption < b.FuelConsumption
	})

	groups := make(map[equipmentKey]*models.DailyEquipmentAggregate)
	for _, rec := range sorted {
		key := equipmentKey{date: rec.Date(), equipmentID: rec.EquipmentID}
		agg, ok := groups[key]
		if !ok {
			agg = &models.DailyEquipmentAggregate{
				Date:        key.date,
				EquipmentID: key.equipmentID,
			}
			groups[key] = agg
		}
		if IsActive(rec.Status) {
			agg.ActiveHours++
		}
		agg.TotalHours++
		agg.FuelConsumptionTotal += rec.FuelConsumption
	}

	out := make([]models.DailyEquipmentAggregate, 0, len(groups))
	for _, agg := range groups {
		agg.UtilizationPct = Utilization(agg.ActiveHours, agg.TotalHours)
		out = append(out, *agg)
	}
	sortEquipmentAggregates(out)
	return out
}

// FillGaps 补全所有出现过的日期 × 设备组合
// 每台设备按日期排序后前向填充，首次读数之前的格子为 0
// 已有的格子原样保留，因此对完整网格是幂等的
func FillGaps(rows []models.DailyEquipmentAggregate) []models.DailyEquipmentAggregate {
	known := make(map[equipmentKey]models.DailyEquipmentAggregate, len(rows))
	dateSet := make(map[time.Time]struct{})
	equipmentSet := make(map[int64]struct{})
	for _, row := range rows {
		day := models.TruncateDay(row.Date)
		known[equipmentKey{date: day, equipmentID: row.EquipmentID}] = row
		dateSet[day] = struct{}{}
		equipmentSet[row.EquipmentID] = struct{}{}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	equipmentIDs := make([]int64, 0, len(equipmentSet))
	for id := range equipmentSet {
		equipmentIDs = append(equipmentIDs, id)
	}
	sort.Slice(equipmentIDs, func(i, j int) bool { return equipmentIDs[i] < equipmentIDs[j] })

	out := make([]models.DailyEquipmentAggregate, 0, len(dates)*len(equipmentIDs))
	for _, id := range equipmentIDs {
		var last models.DailyEquipmentAggregate
		for _, day := range dates {
			if row, ok := known[equipmentKey{date: day, equipmentID: id}]; ok {
				out = append(out, row)
				last = row
				continue
			}
			out = append(out, models.DailyEquipmentAggregate{
				Date:                 day,
				EquipmentID:          id,
				ActiveHours:          last.ActiveHours,
				TotalHours:           last.TotalHours,
				FuelConsumptionTotal: last.FuelConsumptionTotal,
				UtilizationPct:       last.UtilizationPct,
				Imputed:              true,
			})
		}
	}

	sortEquipmentAggregates(out)
	return out
}

// RollupDaily 汇总到每日一行：利用率取设备均值，时长与油耗求和
func RollupDaily(rows []models.DailyEquipmentAggregate) []models.DailyEquipmentRollup {
	sorted := make([]models.DailyEquipmentAggregate, len(rows))
	copy(sorted, rows)
	sortEquipmentAggregates(sorted)

	var out []models.DailyEquipmentRollup
	var count int
	for _, row := range sorted {
		day := models.TruncateDay(row.Date)
		if len(out) == 0 || !out[len(out)-1].Date.Equal(day) {
			if count > 0 {
				out[len(out)-1].UtilizationPct /= float64(count)
			}
			out = append(out, models.DailyEquipmentRollup{Date: day})
			count = 0
		}
		cur := &out[len(out)-1]
		cur.UtilizationPct += row.UtilizationPct
		cur.ActiveHours += row.ActiveHours
		cur.TotalHours += row.TotalHours
		cur.FuelConsumptionTotal += row.FuelConsumptionTotal
		count++
	}
	if count > 0 {
		out[len(out)-1].UtilizationPct /= float64(count)
	}
	return out
}

// Utilization active/total × 100，total 为 0 时返回 0
func Utilization(active, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return active / total * 100
}

// IsActive 判断设备状态是否为运行中
func IsActive(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), models.StatusActive)
}

func sortEquipmentAggregates(rows []models.DailyEquipmentAggregate) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].EquipmentID < rows[j].EquipmentID
	})
}
