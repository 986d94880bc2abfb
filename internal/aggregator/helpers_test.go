package aggregator_test

import (
	"context"
	"sync"
	"time"

	"mining-etl/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

// fakeRainfall 内存降雨源，记录调用次数
type fakeRainfall struct {
	mu     sync.Mutex
	values map[string]float64
	calls  map[string]int
}

func newFakeRainfall(values map[string]float64) *fakeRainfall {
	return &fakeRainfall{values: values, calls: make(map[string]int)}
}

func (f *fakeRainfall) RainfallMM(ctx context.Context, date time.Time) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := date.Format(models.DateLayout)
	f.calls[key]++
	return f.values[key]
}
