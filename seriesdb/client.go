// Package seriesdb provides streaming access to TimescaleDB-backed
// measurement tables.
//
// The client wraps database/sql with the conventions the analysis jobs
// rely on: every query is timed and slow ones are logged with their SQL,
// large result sets are consumed in LIMIT/OFFSET batches that can be
// prefetched ahead of the consumer, and the distinct series of a
// measurement are discovered once and cached.
//
// Example usage:
//
//	client, err := seriesdb.Connect(cfg.Datasources.Timescale, seriesdb.Options{Logger: logger})
//	if err != nil {
//	    logger.Fatal(err)
//	}
//	defer client.Close()
//
//	stream := client.StreamQuery(ctx, "SELECT time, value FROM soc ORDER BY time", 0)
//	defer stream.Stop()
//	for row, ok := stream.Next(); ok; row, ok = stream.Next() {
//	    ...
//	}
package seriesdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/iss4e/toolchain/config"
)

const (
	// DefaultBatchSize is the LIMIT used when streaming query results.
	DefaultBatchSize = 50000

	// DefaultSlowQueryThreshold separates routine queries from the ones
	// worth a warning with their SQL attached.
	DefaultSlowQueryThreshold = 2 * time.Second

	defaultSeriesCacheSize = 128
)

// QueryDuration observes how long the client's queries take, labeled by
// operation. Register it with your prometheus.Registerer to expose it:
//
//	prometheus.MustRegister(seriesdb.QueryDuration)
var QueryDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "toolchain_seriesdb_query_duration_seconds",
		Help:    "Duration of queries issued by the series database client.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// Options tunes a Client.
type Options struct {
	// Logger receives the stopwatch and streaming diagnostics. Defaults
	// to the standard logger.
	Logger logrus.FieldLogger
	// BatchSize is the default LIMIT of streamed queries.
	BatchSize int
	// Prefetch is how many batches are fetched ahead of the consumer.
	// Zero disables background prefetching.
	Prefetch int
	// SlowQueryThreshold triggers a warning log for queries exceeding it.
	SlowQueryThreshold time.Duration
	// SeriesCacheSize bounds the per-measurement series cache.
	SeriesCacheSize int
}

func (o *Options) applyDefaults() {
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.SlowQueryThreshold <= 0 {
		o.SlowQueryThreshold = DefaultSlowQueryThreshold
	}
	if o.SeriesCacheSize <= 0 {
		o.SeriesCacheSize = defaultSeriesCacheSize
	}
}

// Client is a streaming TimescaleDB client. It is safe for concurrent
// use; the underlying pool handles connection management.
type Client struct {
	db          *sql.DB
	logger      logrus.FieldLogger
	opts        Options
	seriesCache *lru.Cache
	opened      time.Time
}

// Connect opens a connection pool for the configured database, verifies
// connectivity and returns a client.
func Connect(cfg config.TimescaleConfig, opts Options) (*Client, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return Open(db, opts)
}

// Open wraps an existing pool, for callers managing their own
// connections.
func Open(db *sql.DB, opts Options) (*Client, error) {
	opts.applyDefaults()
	cache, err := lru.New(opts.SeriesCacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		db:          db,
		logger:      opts.Logger,
		opts:        opts,
		seriesCache: cache,
		opened:      time.Now(),
	}, nil
}

// Close releases the pool and logs how long the connection was open.
func (c *Client) Close() error {
	err := c.db.Close()
	c.logger.WithField("open_for", time.Since(c.opened)).Debug("series database connection closed")
	return err
}

// query runs a query with stopwatch semantics: duration is observed in
// QueryDuration, and anything slower than the threshold is logged with
// its SQL so runaway aggregations are easy to spot.
func (c *Client) query(ctx context.Context, operation, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, args...)
	elapsed := time.Since(start)

	QueryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"operation": operation,
			"elapsed":   elapsed,
			"sql":       query,
		}).WithError(err).Error("query failed")
		return nil, err
	}
	if elapsed > c.opts.SlowQueryThreshold {
		c.logger.WithFields(logrus.Fields{
			"operation": operation,
			"elapsed":   elapsed,
			"sql":       query,
		}).Warn("slow query")
	}
	return rows, nil
}

func (c *Client) exec(ctx context.Context, operation, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := c.db.ExecContext(ctx, query, args...)
	elapsed := time.Since(start)

	QueryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if err == nil && elapsed > c.opts.SlowQueryThreshold {
		c.logger.WithFields(logrus.Fields{
			"operation": operation,
			"elapsed":   elapsed,
			"sql":       query,
		}).Warn("slow query")
	}
	return res, err
}

// Point is one measurement row in the (time, value) table shape.
type Point struct {
	Stamp time.Time
	Value float64
}

// WritePoints inserts points into a measurement table atomically: either
// the whole batch lands or none of it does.
func (c *Client) WritePoints(ctx context.Context, measurement string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // rollback if not committed

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (time, value) VALUES ($1, $2)",
		pq.QuoteIdentifier(measurement),
	))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.Stamp, p.Value); err != nil {
			return fmt.Errorf("failed to insert point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DropMeasurement drops a measurement table. It reports false, not an
// error, when the measurement does not exist.
func (c *Client) DropMeasurement(ctx context.Context, measurement string) (bool, error) {
	_, err := c.exec(ctx, "drop_measurement",
		fmt.Sprintf("DROP TABLE %s", pq.QuoteIdentifier(measurement)))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "42P01" { // undefined_table
			return false, nil
		}
		return false, err
	}
	// Invalidate any cached series discovery for this measurement.
	for _, key := range c.seriesCache.Keys() {
		if k, ok := key.(string); ok && strings.HasPrefix(k, measurement+"\x00") {
			c.seriesCache.Remove(key)
		}
	}
	return true, nil
}
