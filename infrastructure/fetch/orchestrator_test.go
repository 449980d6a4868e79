package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helixml/factual/domain/article"
)

type fakeFetcher struct {
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) article.Result {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return article.Failed(ctx.Err())
		}
	}

	switch {
	case strings.HasSuffix(url, "/fail"):
		return article.Failed(errors.New("connection refused"))
	case strings.HasSuffix(url, "/panic"):
		panic("parser exploded")
	case strings.HasSuffix(url, "/empty"):
		return article.Succeeded("", article.NewMetadata())
	}
	return article.Succeeded("body of "+url, article.NewMetadata())
}

func links(paths ...string) []article.Link {
	out := make([]article.Link, len(paths))
	for i, p := range paths {
		out[i] = article.NewLink(p, "https://site.test/"+p, article.SourceWeb)
	}
	return out
}

func TestFetchAll_OneResultPerLink(t *testing.T) {
	in := links("a", "b/fail", "c", "d/panic", "e/empty", "f/fail")
	o := NewOrchestrator(&fakeFetcher{}, 2, nil)

	out := o.FetchAll(context.Background(), in)

	require.Len(t, out, len(in))
	failed := 0
	for i, f := range out {
		require.Equal(t, in[i].URL(), f.Link().URL(), "results keep input order")
		if !f.Result().OK() {
			failed++
		}
	}
	require.Equal(t, 3, failed)
	require.Equal(t, "body of https://site.test/a", out[0].Result().Body())
	require.Contains(t, out[3].Result().Reason(), "panicked")
	require.True(t, out[4].Result().OK())
	require.False(t, out[4].Result().HasContent())
}

func TestFetchAll_RespectsLimit(t *testing.T) {
	var paths []string
	for i := range 12 {
		paths = append(paths, fmt.Sprintf("p%d", i))
	}
	f := &fakeFetcher{delay: 10 * time.Millisecond}
	o := NewOrchestrator(f, 3, nil)

	out := o.FetchAll(context.Background(), links(paths...))

	require.Len(t, out, 12)
	require.EqualValues(t, 12, f.calls.Load())
	require.LessOrEqual(t, f.peak.Load(), int32(3))
}

func TestFetchAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeFetcher{}

	out := NewOrchestrator(f, 2, nil).FetchAll(ctx, links("a", "b", "c"))

	require.Len(t, out, 3)
	for _, r := range out {
		require.ErrorIs(t, r.Result().Err(), context.Canceled)
	}
	require.Zero(t, f.calls.Load())
}

func TestFetchAll_DeadlineResolvesPending(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	f := &fakeFetcher{delay: time.Second}

	start := time.Now()
	out := NewOrchestrator(f, 1, nil).FetchAll(ctx, links("a", "b", "c", "d"))

	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, out, 4)
	for _, r := range out {
		require.False(t, r.Result().OK())
		require.ErrorIs(t, r.Result().Err(), context.DeadlineExceeded)
	}
}

func TestFetchAll_Empty(t *testing.T) {
	out := NewOrchestrator(&fakeFetcher{}, 0, nil).FetchAll(context.Background(), nil)
	require.Empty(t, out)
}

func TestNewOrchestrator_DefaultLimit(t *testing.T) {
	require.Positive(t, NewOrchestrator(&fakeFetcher{}, 0, nil).Limit())
}
