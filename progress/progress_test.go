package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iss4e/toolchain/progress"
)

func TestReporterEmitsThrottled(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	// A one-hour interval leaves exactly the initial burst emission.
	r := progress.NewReporter(logger, progress.Options{Interval: time.Hour})
	for i := 0; i < 100; i++ {
		r.Add(1)
	}

	require.Len(t, hook.Entries, 1)
	entry := hook.Entries[0]
	assert.Equal(t, "Processed entries", entry.Message)
	assert.Equal(t, int64(1), entry.Data["count"])
}

func TestReporterFinishAlwaysEmits(t *testing.T) {
	logger, hook := test.NewNullLogger()

	r := progress.NewReporter(logger, progress.Options{Interval: time.Hour})
	r.Add(1) // burst emission
	r.Add(2)
	r.Finish()

	require.Len(t, hook.Entries, 2)
	final := hook.LastEntry()
	assert.Equal(t, int64(3), final.Data["count"])
	assert.Equal(t, int64(3), r.Count())
}

func TestReporterMessageShape(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	r := progress.NewReporter(logger, progress.Options{
		Interval: time.Hour,
		Verb:     "Fetched",
		Objects:  "rows",
		Level:    logrus.DebugLevel,
	})
	r.Add(5)

	require.Len(t, hook.Entries, 1)
	entry := hook.Entries[0]
	assert.Equal(t, "Fetched rows", entry.Message)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "rows", entry.Data["objects"])
}

func TestReporterPrometheusCounter(t *testing.T) {
	logger, _ := test.NewNullLogger()

	r := progress.NewReporter(logger, progress.Options{
		Name:     "test_reporter",
		Interval: time.Hour,
	})
	r.Add(3)
	r.Add(4)

	counter := progress.ItemsProcessed.WithLabelValues("test_reporter")
	assert.NotNil(t, counter)
	assert.Equal(t, int64(7), r.Count())
}

func TestAggregatorCombinesWorkers(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	a := progress.NewAggregator(logger, progress.Options{
		Interval: time.Hour,
		Objects:  "rows",
	})

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background()) }()

	w1 := a.Reporter("worker")
	w2 := a.Reporter("worker")

	w1.Add(10)
	w2.Add(32)
	w1.Finish()
	w2.Finish()
	a.Close()

	require.NoError(t, <-errCh)

	// The final emission carries the combined total of both workers.
	var combined *logrus.Entry
	for i := range hook.Entries {
		if hook.Entries[i].Message == "Processed rows" {
			combined = &hook.Entries[i]
		}
	}
	require.NotNil(t, combined)
	assert.Equal(t, int64(42), combined.Data["count"])
	assert.Equal(t, 2, combined.Data["workers"])

	summary := a.Summary()
	assert.Contains(t, summary, "WORKER")
	assert.Contains(t, summary, "10")
	assert.Contains(t, summary, "32")
}

func TestAggregatorContextCancellation(t *testing.T) {
	logger, _ := test.NewNullLogger()
	a := progress.NewAggregator(logger, progress.Options{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, a.Run(ctx), context.Canceled)
}

func TestAggregatorIssuesUniqueIDs(t *testing.T) {
	logger, _ := test.NewNullLogger()
	a := progress.NewAggregator(logger, progress.Options{})

	assert.NotEqual(t, a.NewReporterID(), a.NewReporterID())
}
