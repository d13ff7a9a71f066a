package seriesdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/iss4e/toolchain/lookahead"
)

// Row is one result row keyed by column name.
type Row map[string]interface{}

// BatchFunc fetches one batch of rows at the given offset. It backs a
// RowStream; StreamQuery builds one from SQL, tests and custom sources
// can supply their own.
type BatchFunc func(limit, offset int) ([]Row, error)

// RowStream hands out rows of an unbounded result set, fetching them in
// LIMIT/OFFSET batches behind the scenes. The stream ends at the first
// empty batch. Not safe for concurrent use.
type RowStream struct {
	fetch     BatchFunc
	batchSize int
	offset    int

	prefetched *lookahead.Iterator[[]Row]
	current    []Row
	idx        int
	done       bool
	err        error
}

// NewBatchStream creates a stream over fetch with the given batch size.
// With prefetch > 0 the next batches are fetched in the background while
// the current one is consumed.
func NewBatchStream(fetch BatchFunc, batchSize, prefetch int) *RowStream {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	s := &RowStream{fetch: fetch, batchSize: batchSize}
	if prefetch > 0 {
		s.prefetched = lookahead.Prefetch(context.Background(), s.pull, prefetch, nil)
	}
	return s
}

// pull fetches the next batch, translating "empty batch" into the end of
// the iteration.
func (s *RowStream) pull() ([]Row, bool, error) {
	batch, err := s.fetch(s.batchSize, s.offset)
	if err != nil {
		return nil, false, err
	}
	if len(batch) == 0 {
		return nil, false, nil
	}
	s.offset += s.batchSize
	return batch, true, nil
}

// Next returns the next row; ok is false once the set is exhausted or a
// fetch failed, in which case Err reports the cause.
func (s *RowStream) Next() (Row, bool) {
	for {
		if s.idx < len(s.current) {
			row := s.current[s.idx]
			s.idx++
			return row, true
		}
		if s.done {
			return nil, false
		}

		var batch []Row
		var ok bool
		if s.prefetched != nil {
			batch, ok = s.prefetched.Next()
			if !ok {
				s.err = s.prefetched.Err()
			}
		} else {
			var err error
			batch, ok, err = s.pull()
			s.err = err
		}
		if !ok || s.err != nil {
			s.done = true
			return nil, false
		}
		s.current, s.idx = batch, 0
	}
}

// Err reports why the stream ended early, nil after a clean exhaustion.
func (s *RowStream) Err() error { return s.err }

// Stop releases any background prefetching. Always safe to call.
func (s *RowStream) Stop() {
	if s.prefetched != nil {
		s.prefetched.Stop()
	}
	s.done = true
}

// StreamQuery streams the rows of baseQuery in batches. baseQuery must
// be self-contained (ORDER BY included when row order matters); the
// client appends the LIMIT/OFFSET pagination. A batchSize of 0 uses the
// client default.
func (c *Client) StreamQuery(ctx context.Context, baseQuery string, batchSize int) *RowStream {
	if batchSize <= 0 {
		batchSize = c.opts.BatchSize
	}
	fetch := func(limit, offset int) ([]Row, error) {
		query := fmt.Sprintf("%s LIMIT %d OFFSET %d", baseQuery, limit, offset)
		rows, err := c.query(ctx, "stream_batch", query)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanRows(rows)
	}
	return NewBatchStream(fetch, batchSize, c.opts.Prefetch)
}

// StreamParams shapes the per-series queries of StreamMeasurement.
type StreamParams struct {
	// Fields to select; empty means all columns.
	Fields []string
	// Where restricts the rows of every series (the series selector is
	// ANDed in).
	Where string
	// OrderBy is appended as the ORDER BY clause; empty means "time".
	OrderBy string
	// TagColumns define what constitutes a series.
	TagColumns []string
	// BatchSize of the underlying streams; 0 uses the client default.
	BatchSize int
}

// SeriesStream couples a discovered series with the stream of its rows.
type SeriesStream struct {
	Series Series
	Rows   *RowStream
}

// StreamMeasurement discovers the series of a measurement and returns an
// independent row stream for each of them, so the caller can process
// series separately or merge them with Merge.
func (c *Client) StreamMeasurement(ctx context.Context, measurement string, params StreamParams) ([]SeriesStream, error) {
	if len(params.TagColumns) == 0 {
		return nil, fmt.Errorf("seriesdb: StreamMeasurement requires tag columns")
	}

	series, err := c.ListSeries(ctx, measurement, params.TagColumns...)
	if err != nil {
		return nil, err
	}

	streams := make([]SeriesStream, len(series))
	for i, s := range series {
		query := buildSeriesQuery(measurement, params, s.Selector)
		streams[i] = SeriesStream{
			Series: s,
			Rows:   c.StreamQuery(ctx, query, params.BatchSize),
		}
	}
	return streams, nil
}

func buildSeriesQuery(measurement string, params StreamParams, selector string) string {
	fields := "*"
	if len(params.Fields) > 0 {
		fields = strings.Join(params.Fields, ", ")
	}
	orderBy := params.OrderBy
	if orderBy == "" {
		orderBy = "time"
	}

	query := fmt.Sprintf("SELECT %s FROM %s", fields, pq.QuoteIdentifier(measurement))
	if where := JoinSelectors(params.Where, selector); where != "" {
		query += " WHERE " + where
	}
	return query + " ORDER BY " + orderBy
}

// SeriesRow is one row of a merged measurement stream, annotated with
// the series it belongs to.
type SeriesRow struct {
	Series Series
	Row    Row
}

// Merge drains several series streams concurrently onto a single
// channel. The returned wait function blocks until every stream is done
// and reports the first failure; the channel is closed afterwards.
func Merge(ctx context.Context, streams []SeriesStream) (<-chan SeriesRow, func() error) {
	out := make(chan SeriesRow)
	g, ctx := errgroup.WithContext(ctx)

	for _, ss := range streams {
		ss := ss
		g.Go(func() error {
			defer ss.Rows.Stop()
			for {
				row, ok := ss.Rows.Next()
				if !ok {
					return ss.Rows.Err()
				}
				select {
				case out <- SeriesRow{Series: ss.Series, Row: row}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}

	done := make(chan error, 1)
	go func() {
		err := g.Wait()
		close(out)
		done <- err
	}()
	return out, func() error { return <-done }
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
