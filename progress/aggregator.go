package progress

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Aggregator combines the counters of concurrently running workers. Each
// worker sends Updates (usually through a Reporter configured with
// Remote); the aggregator logs the combined throughput at a bounded
// frequency and a per-worker summary table at the end.
type Aggregator struct {
	logger  logrus.FieldLogger
	opts    Options
	limiter *rate.Limiter
	updates chan Update
	counts  map[string]int64

	start     time.Time
	lastTotal int64
	lastEmit  time.Time
}

// NewAggregator creates an aggregator logging to logger. Verb, Objects,
// Interval and Level of opts apply; Remote and Name are ignored.
func NewAggregator(logger logrus.FieldLogger, opts Options) *Aggregator {
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
	now := time.Now()
	return &Aggregator{
		logger:   logger,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Every(opts.Interval), 1),
		updates:  make(chan Update, 64),
		counts:   make(map[string]int64),
		start:    now,
		lastEmit: now,
	}
}

// Updates is the channel workers send their running totals to.
func (a *Aggregator) Updates() chan<- Update { return a.updates }

// NewReporterID issues a unique worker identifier.
func (a *Aggregator) NewReporterID() string { return uuid.NewString() }

// Reporter creates a worker-local reporter that feeds this aggregator.
func (a *Aggregator) Reporter(name string) *Reporter {
	opts := a.opts
	opts.Name = name
	opts.Remote = a.updates
	opts.ID = a.NewReporterID()
	return NewReporter(a.logger, opts)
}

// Close signals that no further updates will arrive. Workers must have
// stopped sending before Close is called.
func (a *Aggregator) Close() { close(a.updates) }

// Run consumes updates until Close or context cancellation, logging the
// combined progress. It returns ctx.Err after cancellation and nil after
// a clean Close, having logged the final per-worker summary.
func (a *Aggregator) Run(ctx context.Context) error {
	for {
		select {
		case u, ok := <-a.updates:
			if !ok {
				a.emit()
				a.logSummary()
				return nil
			}
			a.counts[u.ID] = u.Count
			if a.limiter.Allow() {
				a.emit()
			}
		case <-ctx.Done():
			a.logSummary()
			return ctx.Err()
		}
	}
}

func (a *Aggregator) total() int64 {
	var total int64
	for _, c := range a.counts {
		total += c
	}
	return total
}

func (a *Aggregator) emit() {
	now := time.Now()
	total := a.total()
	elapsed := now.Sub(a.start).Seconds()
	sinceLast := now.Sub(a.lastEmit).Seconds()

	currentRate := 0.0
	if sinceLast > 0 {
		currentRate = float64(total-a.lastTotal) / sinceLast
	}
	avgRate := 0.0
	if elapsed > 0 {
		avgRate = float64(total) / elapsed
	}

	a.logger.WithFields(logrus.Fields{
		"workers":  len(a.counts),
		"count":    total,
		"elapsed":  elapsed,
		"rate":     currentRate,
		"avg_rate": avgRate,
		"objects":  a.opts.Objects,
	}).Log(a.opts.Level, a.opts.Verb+" "+a.opts.Objects)

	a.lastTotal, a.lastEmit = total, now
}

func (a *Aggregator) logSummary() {
	a.logger.WithField("summary", a.Summary()).Debug("aggregated progress finished")
}

// Summary renders the per-worker totals as an aligned table.
func (a *Aggregator) Summary() string {
	ids := make([]string, 0, len(a.counts))
	for id := range a.counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKER\tCOUNT")
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%d\n", id, a.counts[id])
	}
	w.Flush()
	return buf.String()
}
