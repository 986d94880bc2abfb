package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mining-etl/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSummary() *models.RunSummary {
	start := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	return &models.RunSummary{
		RunID:      "run-1",
		Task:       models.TaskAll,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		RowsWritten: map[string]int{
			"daily_production_metrics": 3,
			"production_anomalies":     1,
		},
		Anomalies: 1,
	}
}

// gaugeValue 从 registry 读取 gauge 值，label 为空时取第一条
func gaugeValue(t *testing.T, r *Recorder, name, label string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" {
				return m.GetGauge().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder("", "mining_etl", zap.NewNop())
	r.Observe(testSummary())

	assert.Equal(t, 3.0, gaugeValue(t, r, "mining_etl_rows_written", "daily_production_metrics"))
	assert.Equal(t, 1.0, gaugeValue(t, r, "mining_etl_rows_written", "production_anomalies"))
	assert.Equal(t, 1.0, gaugeValue(t, r, "mining_etl_production_anomalies", ""))
	assert.Equal(t, 1.5, gaugeValue(t, r, "mining_etl_run_duration_seconds", ""))
	assert.Equal(t, 0.0, gaugeValue(t, r, "mining_etl_forecast_mae", ""))
}

func TestRecorder_PushDisabled(t *testing.T) {
	r := NewRecorder("", "mining_etl", zap.NewNop())
	assert.NoError(t, r.Push(context.Background(), models.TaskAll))
}

func TestRecorder_Push(t *testing.T) {
	var method, path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		method = req.Method
		path = req.URL.Path
		b, _ := io.ReadAll(req.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder(srv.URL, "mining_etl", zap.NewNop())
	r.Observe(testSummary())
	require.NoError(t, r.Push(context.Background(), models.TaskAll))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/mining_etl/task/all", path)
	assert.True(t, strings.Contains(body, "mining_etl_rows_written"))
}

func TestRecorder_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRecorder(srv.URL, "mining_etl", zap.NewNop())
	assert.Error(t, r.Push(context.Background(), models.TaskAll))
}
