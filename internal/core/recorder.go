package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/model"
)

var (
	usageRecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_records_written_total",
		Help: "Usage ledger rows written",
	})
	usageRecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_records_dropped_total",
		Help: "Usage records dropped because the recorder buffer was full",
	})
	usageRecordFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "usage_record_failures_total",
		Help: "Usage ledger insert failures",
	})
)

const recordInsertTimeout = 5 * time.Second

// Recorder writes usage rows off the request path. Record never blocks and
// never returns an error to the caller; failures surface as metrics and logs.
type Recorder struct {
	svc    *UsageService
	logger zerolog.Logger
	ch     chan *model.Usage
}

// NewRecorder creates a Recorder with the given buffer size.
func NewRecorder(svc *UsageService, logger zerolog.Logger, buffer int) *Recorder {
	return &Recorder{
		svc:    svc,
		logger: logger,
		ch:     make(chan *model.Usage, buffer),
	}
}

// Record enqueues a usage row. When the buffer is full the row is dropped
// and counted; the parent request is never delayed or failed.
func (r *Recorder) Record(u *model.Usage) {
	select {
	case r.ch <- u:
	default:
		usageRecordsDropped.Inc()
		r.logger.Warn().Str("endpoint", u.Endpoint).Msg("usage recorder buffer full, dropping record")
	}
}

// Run drains the queue until the context is done, then flushes whatever is
// still buffered.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.flush()
			return ctx.Err()
		case u := <-r.ch:
			r.write(u)
		}
	}
}

func (r *Recorder) flush() {
	for {
		select {
		case u := <-r.ch:
			r.write(u)
		default:
			return
		}
	}
}

func (r *Recorder) write(u *model.Usage) {
	ctx, cancel := context.WithTimeout(context.Background(), recordInsertTimeout)
	defer cancel()

	if err := r.svc.Insert(ctx, u); err != nil {
		usageRecordFailures.Inc()
		r.logger.Error().Err(err).Str("endpoint", u.Endpoint).Msg("failed to write usage record")
		return
	}
	usageRecordsWritten.Inc()
}
