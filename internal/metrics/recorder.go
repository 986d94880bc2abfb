package metrics

import (
	"context"
	"fmt"

	"mining-etl/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// Recorder 批处理运行指标，运行结束后推送到 Pushgateway
type Recorder struct {
	registry *prometheus.Registry
	url      string
	job      string
	logger   *zap.Logger

	rowsWritten *prometheus.GaugeVec
	anomalies   prometheus.Gauge
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
	mae         prometheus.Gauge
	rmse        prometheus.Gauge
}

// NewRecorder 创建指标记录器；url 为空时只记录不推送
func NewRecorder(url, job string, logger *zap.Logger) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		url:      url,
		job:      job,
		logger:   logger,
		rowsWritten: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mining_etl_rows_written",
				Help: "Rows written to warehouse tables in the last run",
			},
			[]string{"table"},
		),
		anomalies: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mining_etl_production_anomalies",
			Help: "Negative-tonnage records detected in the last run",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mining_etl_run_duration_seconds",
			Help: "Duration of the last run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mining_etl_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		mae: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mining_etl_forecast_mae",
			Help: "Mean absolute error of the last forecast evaluation",
		}),
		rmse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mining_etl_forecast_rmse",
			Help: "Root mean squared error of the last forecast evaluation",
		}),
	}

	r.registry.MustRegister(r.rowsWritten, r.anomalies, r.duration, r.lastSuccess, r.mae, r.rmse)
	return r
}

// Registry 用于测试或本地采集
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe 记录一次成功运行
func (r *Recorder) Observe(summary *models.RunSummary) {
	for table, n := range summary.RowsWritten {
		r.rowsWritten.WithLabelValues(table).Set(float64(n))
	}
	r.anomalies.Set(float64(summary.Anomalies))
	r.duration.Set(summary.Duration().Seconds())
	r.lastSuccess.Set(float64(summary.FinishedAt.Unix()))
	if summary.MAE != nil {
		r.mae.Set(*summary.MAE)
	}
	if summary.RMSE != nil {
		r.rmse.Set(*summary.RMSE)
	}
}

// Push 推送到 Pushgateway，按 task 分组
func (r *Recorder) Push(ctx context.Context, task string) error {
	if r.url == "" {
		return nil
	}

	err := push.New(r.url, r.job).
		Gatherer(r.registry).
		Grouping("task", task).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", r.url, err)
	}

	r.logger.Debug("Metrics pushed", zap.String("url", r.url), zap.String("task", task))
	return nil
}
