package naturaldb

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felix-wang-0307/NaturalDB/codec"
	"github.com/felix-wang-0307/NaturalDB/internal/fs"
	"github.com/felix-wang-0307/NaturalDB/resource"
)

// DefaultLockTimeout bounds how long an operation waits for a
// contended resource lock before giving up with ErrLockTimeout.
const DefaultLockTimeout = 10 * time.Second

type options struct {
	codec            codec.Codec
	fs               fs.FileSystem
	lockTimeout      time.Duration
	metricsCollector MetricsCollector
	logger           *Logger
	idGenerator      func() string
	clock            func() time.Time
	resources        *resource.Controller
}

// Option configures Open behavior.
//
// Options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
type Option func(*options)

// WithCodec configures the codec used for record and metadata files.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithFileSystem configures the filesystem implementation. Intended for
// tests that inject faults; production stores use the default.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithLockTimeout configures how long operations wait for a contended
// lock before failing with ErrLockTimeout. Zero or negative means wait
// forever.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &naturaldb.BasicMetricsCollector{}
//	db, _ := naturaldb.Open("./data", naturaldb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Avg latency: %dns\n", stats.InsertCount, stats.InsertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := naturaldb.NewJSONLogger(slog.LevelInfo)
//	db, _ := naturaldb.Open("./data", naturaldb.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithIDGenerator configures how record ids are generated when an
// insert supplies none. The default generates UUIDs.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		o.idGenerator = gen
	}
}

// WithClock configures the time source used to stamp backup archives.
// Intended for tests; the default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithResourceConfig bounds background jobs (backups, imports, exports)
// and their IO throughput.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resources = resource.NewController(cfg)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		lockTimeout:      DefaultLockTimeout,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		idGenerator:      uuid.NewString,
		clock:            time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.idGenerator == nil {
		o.idGenerator = uuid.NewString
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	return o
}
