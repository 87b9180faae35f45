package classify

import (
	"context"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/metrics"
)

// Timed records latency and failures of an inner Classifier.
type Timed struct {
	inner     Classifier
	collector *metrics.Collector
}

var _ Classifier = (*Timed)(nil)

// NewTimed wraps inner. A nil collector only feeds Prometheus.
func NewTimed(inner Classifier, collector *metrics.Collector) *Timed {
	return &Timed{inner: inner, collector: collector}
}

func (t *Timed) Classify(ctx context.Context, text string, kind Kind) (*Result, error) {
	start := time.Now()
	res, err := t.inner.Classify(ctx, text, kind)
	elapsed := time.Since(start)

	op := metrics.OpClassifySentiment
	if kind == KindModeration {
		op = metrics.OpClassifyModeration
	}

	if err != nil {
		metrics.ClassificationFailuresTotal.WithLabelValues(kind.String()).Inc()
		if t.collector != nil {
			t.collector.RecordFailure(op, elapsed)
		}
		return nil, err
	}
	if t.collector != nil {
		t.collector.RecordTiming(op, elapsed)
	}
	return res, nil
}
