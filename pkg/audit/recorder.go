package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is a fire-and-forget Sink. Events are queued in a bounded buffer
// and written to Storage in batches by a background worker. When the buffer
// is full, or after Close, events are dropped and counted.
type Recorder struct {
	storage Storage
	events  chan Event
	done    chan struct{}
	closed  atomic.Bool
	wg      sync.WaitGroup
	opts    options

	dropped atomic.Uint64
	failed  atomic.Uint64

	droppedTotal prometheus.Counter
	storedTotal  prometheus.Counter
	failedTotal  prometheus.Counter
}

// NewRecorder starts a recorder writing to storage. Call Close on shutdown to
// flush queued events.
func NewRecorder(storage Storage, opts ...Option) *Recorder {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Recorder{
		storage: storage,
		events:  make(chan Event, o.bufferSize),
		done:    make(chan struct{}),
		opts:    o,
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "entitlement",
			Subsystem: "audit",
			Name:      "events_dropped_total",
			Help:      "Audit events dropped because the queue was full or closed.",
		}),
		storedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "entitlement",
			Subsystem: "audit",
			Name:      "events_stored_total",
			Help:      "Audit events written to storage.",
		}),
		failedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "entitlement",
			Subsystem: "audit",
			Name:      "events_failed_total",
			Help:      "Audit events lost to storage errors.",
		}),
	}
	if o.registerer != nil {
		o.registerer.MustRegister(r.droppedTotal, r.storedTotal, r.failedTotal)
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record queues the event without blocking. Missing ID and Timestamp are filled in.
// Invalid events are dropped.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if err := event.Validate(); err != nil {
		r.opts.logger.WarnContext(ctx, "audit event rejected", slog.String("error", err.Error()))
		r.drop()
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if r.closed.Load() {
		r.drop()
		return
	}

	select {
	case r.events <- event:
	default:
		r.drop()
	}
}

// Dropped returns the number of events discarded so far.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Failed returns the number of events lost to storage errors.
func (r *Recorder) Failed() uint64 {
	return r.failed.Load()
}

// Close stops accepting events and flushes the queue. The context bounds the
// wait; on timeout some events may remain unflushed.
func (r *Recorder) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return ErrRecorderClosed
	}
	close(r.done)

	flushed := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(flushed)
	}()

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) drop() {
	r.dropped.Add(1)
	r.droppedTotal.Inc()
}

// store hands a batch to storage. A panicking storage fails the batch
// instead of the worker.
func (r *Recorder) store(ctx context.Context, batch []Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrStoragePanic, p)
		}
	}()
	return r.storage.StoreBatch(ctx, batch)
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	batch := make([]Event, 0, r.opts.batchSize)
	ticker := time.NewTicker(r.opts.batchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		// Decoupled from callers: a request context may already be gone.
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.storageTimeout)
		defer cancel()

		if err := r.store(ctx, batch); err != nil {
			r.failed.Add(uint64(len(batch)))
			r.failedTotal.Add(float64(len(batch)))
			r.opts.logger.ErrorContext(ctx, "failed to store audit batch",
				slog.Int("events", len(batch)),
				slog.String("error", err.Error()),
			)
		} else {
			r.storedTotal.Add(float64(len(batch)))
		}

		clear(batch)
		batch = batch[:0]
	}

	for {
		select {
		case e := <-r.events:
			batch = append(batch, e)
			if len(batch) >= r.opts.batchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-r.done:
			for {
				select {
				case e := <-r.events:
					batch = append(batch, e)
					if len(batch) >= r.opts.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
