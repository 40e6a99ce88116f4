package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"petopia/models"
	"petopia/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWarmer struct {
	calls int
	err   error
	panic bool
}

func (f *fakeWarmer) Summary(_ context.Context, r service.Range) (models.DashboardSummary, error) {
	f.calls++
	if f.panic {
		panic("boom")
	}
	if r.From != nil || r.To != nil {
		return models.DashboardSummary{}, errors.New("expected unbounded range")
	}
	return models.DashboardSummary{}, f.err
}

type fakePurger struct {
	at time.Time
	n  int64
}

func (f *fakePurger) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	f.at = now
	return f.n, nil
}

func observe(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestNew_RegistersJobs(t *testing.T) {
	s, err := New(&fakeWarmer{}, &fakePurger{})
	require.NoError(t, err)
	assert.Len(t, s.sched.Entries(), 2)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestWarmAnalytics(t *testing.T) {
	logs := observe(t)
	w := &fakeWarmer{}
	s, err := New(w, &fakePurger{})
	require.NoError(t, err)

	s.WarmAnalytics()
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, 1, logs.FilterMessage("analytics warmed").Len())

	w.err = errors.New("mongo down")
	s.WarmAnalytics()
	assert.Equal(t, 1, logs.FilterMessage("warm analytics failed").Len())

	w.panic = true
	assert.NotPanics(t, s.WarmAnalytics)
	assert.Equal(t, 1, logs.FilterMessage("job panicked").Len())
}

func TestPurgeTokens(t *testing.T) {
	logs := observe(t)
	p := &fakePurger{n: 3}
	s, err := New(&fakeWarmer{}, p)
	require.NoError(t, err)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.PurgeTokens()
	assert.True(t, p.at.Equal(now))
	entries := logs.FilterMessage("purged expired tokens").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["count"])
}
