package aggregator

import (
	"sort"
	"time"

	"mining-etl/internal/models"

	"go.uber.org/zap"
)

// ProductionResult 生产日志聚合结果
type ProductionResult struct {
	Anomalies []models.ProductionAnomaly      // 负产量记录（修正前快照）
	Corrected []models.ProductionLogRecord    // 负值已置 0 的副本
	Daily     []models.DailyProductionPartial // 按日（或日+矿区）聚合
}

// ProductionAggregator 生产日志清洗与聚合
type ProductionAggregator struct {
	perSite bool
	logger  *zap.Logger
}

// NewProductionAggregator 创建生产聚合器
// perSite=true 时按 (date, mine_id) 分组，否则仅按 date 分组
func NewProductionAggregator(perSite bool, logger *zap.Logger) *ProductionAggregator {
	return &ProductionAggregator{
		perSite: perSite,
		logger:  logger,
	}
}

type productionKey struct {
	date   time.Time
	mineID int64
}

type productionAcc struct {
	tons         float64
	qualitySum   float64
	qualityCount int
}

// Aggregate 清洗负产量并按日聚合
// 输入不会被修改；结果与输入顺序无关
func (a *ProductionAggregator) Aggregate(records []models.ProductionLogRecord) *ProductionResult {
	sorted := make([]models.ProductionLogRecord, len(records))
	copy(sorted, records)
	sortProductionRecords(sorted)

	result := &ProductionResult{
		Anomalies: []models.ProductionAnomaly{},
		Corrected: make([]models.ProductionLogRecord, 0, len(sorted)),
	}

	groups := make(map[productionKey]*productionAcc)
	var keys []productionKey

	for _, rec := range sorted {
		corrected := rec
		if rec.TonsExtracted < 0 {
			result.Anomalies = append(result.Anomalies, models.ProductionAnomaly{
				LogID:                 rec.LogID,
				Date:                  rec.Date,
				MineID:                rec.MineID,
				Shift:                 rec.Shift,
				OriginalTonsExtracted: rec.TonsExtracted,
				QualityGrade:          rec.QualityGrade,
				AnomalyFlag:           true,
			})
			corrected.TonsExtracted = 0
		}
		result.Corrected = append(result.Corrected, corrected)

		key := productionKey{date: models.TruncateDay(rec.Date)}
		if a.perSite {
			key.mineID = rec.MineID
		}
		acc, ok := groups[key]
		if !ok {
			acc = &productionAcc{}
			groups[key] = acc
			keys = append(keys, key)
		}
		acc.tons += corrected.TonsExtracted
		acc.qualitySum += corrected.QualityGrade
		acc.qualityCount++
	}

	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].date.Equal(keys[j].date) {
			return keys[i].date.Before(keys[j].date)
		}
		return keys[i].mineID < keys[j].mineID
	})

	result.Daily = make([]models.DailyProductionPartial, 0, len(keys))
	for _, key := range keys {
		acc := groups[key]
		partial := models.DailyProductionPartial{
			Date:                 key.date,
			TotalProductionDaily: acc.tons,
			AverageQualityGrade:  acc.qualitySum / float64(acc.qualityCount),
		}
		if a.perSite {
			partial.MineID = models.Int64Ptr(key.mineID)
		}
		result.Daily = append(result.Daily, partial)
	}

	a.logger.Debug("Aggregated production logs",
		zap.Int("record_count", len(records)),
		zap.Int("anomaly_count", len(result.Anomalies)),
		zap.Int("group_count", len(result.Daily)),
		zap.Bool("per_site", a.perSite),
	)

	return result
}

// sortProductionRecords 固定排序，保证浮点累加顺序一致
func sortProductionRecords(records []models.ProductionLogRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.MineID != b.MineID {
			return a.MineID < b.MineID
		}
		if a.LogID != b.LogID {
			return a.LogID < b.LogID
		}
		if a.Shift != b.Shift {
			return a.Shift < b.Shift
		}
		if a.TonsExtracted != b.TonsExtracted {
			return a.TonsExtracted < b.TonsExtracted
		}
		return a.QualityGrade < b.QualityGrade
	})
}
