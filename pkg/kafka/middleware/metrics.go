package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"agenda/pkg/kafka"
)

// Metrics counts messages passing through a producer or consumer chain.
type Metrics struct {
	succeeded     atomic.Int64
	failed        atomic.Int64
	durationTotal atomic.Int64
}

type MetricsSnapshot struct {
	Succeeded   int64  `json:"succeeded"`
	Failed      int64  `json:"failed"`
	AvgDuration string `json:"avgDuration"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Middleware() kafka.Middleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		m.durationTotal.Add(int64(time.Since(start)))
		if err != nil {
			m.failed.Add(1)
		} else {
			m.succeeded.Add(1)
		}
		return err
	}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	ok, failed := m.succeeded.Load(), m.failed.Load()
	var avg time.Duration
	if total := ok + failed; total > 0 {
		avg = time.Duration(m.durationTotal.Load() / total)
	}
	return MetricsSnapshot{Succeeded: ok, Failed: failed, AvgDuration: avg.String()}
}
