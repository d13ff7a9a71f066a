package seriesdb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// Series identifies one tag combination within a measurement, together
// with the WHERE selector that isolates exactly its rows.
type Series struct {
	Tags     map[string]string
	Selector string
}

// ID renders the series tags as a stable "k=v,k=v" identifier.
func (s Series) ID() string {
	keys := make([]string, 0, len(s.Tags))
	for k := range s.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + s.Tags[k]
	}
	return strings.Join(parts, ",")
}

// TagSelector builds the WHERE clause selecting rows whose tag column
// holds the given value. Identifier and literal are quoted for Postgres.
func TagSelector(column, value string) string {
	return fmt.Sprintf("%s = %s", pq.QuoteIdentifier(column), pq.QuoteLiteral(value))
}

// JoinSelectors combines WHERE clauses with AND, parenthesizing each one
// and skipping empties. A single selector is returned bare.
func JoinSelectors(selectors ...string) string {
	var kept []string
	for _, s := range selectors {
		if s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 1 {
		return "(" + kept[0] + ")"
	}
	parts := make([]string, len(kept))
	for i, s := range kept {
		parts[i] = "(" + s + ")"
	}
	return strings.Join(parts, " AND ")
}

// ListSeries discovers the distinct series of a measurement over the
// given tag columns. Results are cached per measurement and tag set; the
// cache entry is dropped when the measurement is dropped.
func (c *Client) ListSeries(ctx context.Context, measurement string, tagColumns ...string) ([]Series, error) {
	if len(tagColumns) == 0 {
		return nil, fmt.Errorf("seriesdb: at least one tag column is required")
	}

	cacheKey := measurement + "\x00" + strings.Join(tagColumns, "\x00")
	if cached, ok := c.seriesCache.Get(cacheKey); ok {
		return cached.([]Series), nil
	}

	quoted := make([]string, len(tagColumns))
	for i, col := range tagColumns {
		quoted[i] = pq.QuoteIdentifier(col)
	}
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s",
		strings.Join(quoted, ", "), pq.QuoteIdentifier(measurement))

	rows, err := c.query(ctx, "list_series", query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series []Series
	for rows.Next() {
		values := make([]string, len(tagColumns))
		ptrs := make([]interface{}, len(tagColumns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		tags := make(map[string]string, len(tagColumns))
		selectors := make([]string, len(tagColumns))
		for i, col := range tagColumns {
			tags[col] = values[i]
			selectors[i] = TagSelector(col, values[i])
		}
		series = append(series, Series{
			Tags:     tags,
			Selector: JoinSelectors(selectors...),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	c.seriesCache.Add(cacheKey, series)
	return series, nil
}
