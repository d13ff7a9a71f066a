// Package progress reports throughput of long-running batch jobs. A
// Reporter counts consumed items and logs a structured status line at a
// bounded frequency; an Aggregator combines the counters of many
// concurrent workers into one view.
package progress

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum delay between two status lines.
const DefaultInterval = 5 * time.Second

// ItemsProcessed counts items handled per reporter. Register it with
// your prometheus.Registerer to expose it:
//
//	prometheus.MustRegister(progress.ItemsProcessed)
var ItemsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "toolchain_progress_items_total",
		Help: "Number of items consumed by progress reporters.",
	},
	[]string{"reporter"},
)

// Update carries a worker's running total to an Aggregator.
type Update struct {
	ID    string
	Count int64
}

// Options tunes a Reporter.
type Options struct {
	// Name labels the Prometheus counter; empty disables instrumentation.
	Name string
	// Interval bounds how often a status line is emitted. Defaults to
	// DefaultInterval.
	Interval time.Duration
	// Verb and Objects shape the message ("Processed" ... "entries").
	Verb    string
	Objects string
	// Level of the status lines. Defaults to logrus.InfoLevel.
	Level logrus.Level
	// Remote, when set, routes updates to an Aggregator instead of the
	// logger. ID identifies this reporter in the aggregate.
	Remote chan<- Update
	ID     string
}

// Reporter tracks how many items a job has consumed. Not safe for
// concurrent use; give each worker its own reporter and combine them
// with an Aggregator.
type Reporter struct {
	logger  logrus.FieldLogger
	opts    Options
	limiter *rate.Limiter
	counter prometheus.Counter

	start     time.Time
	count     int64
	lastCount int64
	lastEmit  time.Time
}

// NewReporter creates a reporter logging to logger. When opts.Remote is
// set the initial zero count is announced immediately, so the aggregate
// knows the worker exists before it makes progress.
func NewReporter(logger logrus.FieldLogger, opts Options) *Reporter {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Verb == "" {
		opts.Verb = "Processed"
	}
	if opts.Objects == "" {
		opts.Objects = "entries"
	}
	if opts.Level == 0 {
		opts.Level = logrus.InfoLevel
	}

	r := &Reporter{
		logger:  logger,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.Interval), 1),
		start:   time.Now(),
	}
	r.lastEmit = r.start
	if opts.Name != "" {
		r.counter = ItemsProcessed.WithLabelValues(opts.Name)
	}
	if opts.Remote != nil {
		opts.Remote <- Update{ID: opts.ID, Count: 0}
	}
	return r
}

// Add records n consumed items and emits a status line if the interval
// allows it.
func (r *Reporter) Add(n int) {
	r.count += int64(n)
	if r.counter != nil {
		r.counter.Add(float64(n))
	}
	if r.limiter.Allow() {
		r.emit()
	}
}

// Count returns the running total.
func (r *Reporter) Count() int64 { return r.count }

// Finish emits a final status line regardless of the interval.
func (r *Reporter) Finish() {
	r.emit()
}

func (r *Reporter) emit() {
	now := time.Now()
	if r.opts.Remote != nil {
		r.opts.Remote <- Update{ID: r.opts.ID, Count: r.count}
		r.lastCount, r.lastEmit = r.count, now
		return
	}

	elapsed := now.Sub(r.start).Seconds()
	sinceLast := now.Sub(r.lastEmit).Seconds()

	currentRate := 0.0
	if sinceLast > 0 {
		currentRate = float64(r.count-r.lastCount) / sinceLast
	}
	avgRate := 0.0
	if elapsed > 0 {
		avgRate = float64(r.count) / elapsed
	}

	r.logger.WithFields(logrus.Fields{
		"count":    r.count,
		"elapsed":  elapsed,
		"rate":     currentRate,
		"avg_rate": avgRate,
		"objects":  r.opts.Objects,
	}).Log(r.opts.Level, r.opts.Verb+" "+r.opts.Objects)

	r.lastCount, r.lastEmit = r.count, now
}
