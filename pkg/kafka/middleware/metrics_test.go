package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"agenda/pkg/kafka"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := NewMetrics()
	mw := m.Middleware()

	ok := func(ctx context.Context, msg kafka.Message) error { return nil }
	fail := func(ctx context.Context, msg kafka.Message) error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		if err := mw(context.Background(), kafka.Message{}, ok); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := mw(context.Background(), kafka.Message{}, fail); err == nil {
		t.Fatal("expected the handler error to propagate")
	}

	snap := m.Snapshot()
	if snap.Succeeded != 3 || snap.Failed != 1 {
		t.Errorf("Snapshot() = %+v, want 3 succeeded and 1 failed", snap)
	}
}

func TestMetrics_EmptySnapshot(t *testing.T) {
	snap := NewMetrics().Snapshot()
	if snap.Succeeded != 0 || snap.Failed != 0 || snap.AvgDuration != "0s" {
		t.Errorf("Snapshot() = %+v", snap)
	}
}
