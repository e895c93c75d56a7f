package audit

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultBufferSize     = 1000
	DefaultBatchSize      = 100
	DefaultBatchTimeout   = 100 * time.Millisecond
	DefaultStorageTimeout = 5 * time.Second
)

// Config holds recorder settings loadable from the environment.
type Config struct {
	BufferSize     int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1000"`
	BatchSize      int           `env:"AUDIT_BATCH_SIZE" envDefault:"100"`
	BatchTimeout   time.Duration `env:"AUDIT_BATCH_TIMEOUT" envDefault:"100ms"`
	StorageTimeout time.Duration `env:"AUDIT_STORAGE_TIMEOUT" envDefault:"5s"`
}

// Options returns recorder options matching the config.
func (c Config) Options() []Option {
	return []Option{
		WithBufferSize(c.BufferSize),
		WithBatchSize(c.BatchSize),
		WithBatchTimeout(c.BatchTimeout),
		WithStorageTimeout(c.StorageTimeout),
	}
}

type options struct {
	bufferSize     int
	batchSize      int
	batchTimeout   time.Duration
	storageTimeout time.Duration
	logger         *slog.Logger
	registerer     prometheus.Registerer
}

// Option configures a Recorder.
type Option func(*options)

// WithBufferSize sets the queue capacity. Events beyond it are dropped.
func WithBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferSize = n
		}
	}
}

// WithBatchSize sets the target number of events per storage write.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithBatchTimeout bounds how long a partial batch waits before being flushed.
func WithBatchTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.batchTimeout = d
		}
	}
}

// WithStorageTimeout bounds a single storage write.
func WithStorageTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.storageTimeout = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithMetrics registers recorder counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func defaultOptions() options {
	return options{
		bufferSize:     DefaultBufferSize,
		batchSize:      DefaultBatchSize,
		batchTimeout:   DefaultBatchTimeout,
		storageTimeout: DefaultStorageTimeout,
		logger:         slog.New(slog.DiscardHandler),
	}
}
