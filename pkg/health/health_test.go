package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysOK(_ context.Context) error { return nil }

func alwaysFail(msg string) CheckFunc {
	return func(_ context.Context) error {
		return errors.New(msg)
	}
}

// execN drives the probe at index i through n executions, bypassing the
// ticker so tests do not have to wait.
func execN(c *Checker, i, n int) {
	for range n {
		c.probes[i].exec(context.Background())
	}
}

func serveLive(c *Checker) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	return w
}

func serveReady(c *Checker) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return w
}

func decodeReport(t *testing.T, w *httptest.ResponseRecorder) report {
	t.Helper()
	var rep report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rep))
	return rep
}

func TestLiveEndpoint(t *testing.T) {
	t.Run("passing probes", func(t *testing.T) {
		c := New()
		c.AddLiveness("a", time.Second, alwaysOK)
		c.AddLiveness("b", time.Second, alwaysOK)

		w := serveLive(c)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "ok", decodeReport(t, w).Status)
	})

	t.Run("no probes registered", func(t *testing.T) {
		w := serveLive(New())
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("probe past failure streak", func(t *testing.T) {
		c := New()
		c.AddLiveness("db", time.Second, alwaysFail("connection refused"))
		execN(c, 0, failStreak)

		w := serveLive(c)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		rep := decodeReport(t, w)
		assert.Equal(t, "unhealthy", rep.Status)
		assert.Equal(t, "connection refused", rep.Checks["db"])
	})

	t.Run("failures below streak stay healthy", func(t *testing.T) {
		c := New()
		c.AddLiveness("flaky", time.Second, alwaysFail("blip"))
		execN(c, 0, failStreak-1)

		assert.Equal(t, http.StatusOK, serveLive(c).Code)
	})
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("gate open and probes passing", func(t *testing.T) {
		c := New()
		c.AddReadiness("postgres", time.Second, alwaysOK)
		c.SetReady(true)

		assert.Equal(t, http.StatusOK, serveReady(c).Code)
	})

	t.Run("gate closed by default", func(t *testing.T) {
		c := New()
		c.AddReadiness("postgres", time.Second, alwaysOK)

		w := serveReady(c)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, decodeReport(t, w).Checks, "ready")
	})

	t.Run("gate reclosed on shutdown", func(t *testing.T) {
		c := New()
		c.SetReady(true)
		require.Equal(t, http.StatusOK, serveReady(c).Code)

		c.SetReady(false)
		assert.Equal(t, http.StatusServiceUnavailable, serveReady(c).Code)
	})

	t.Run("one failing probe among passing", func(t *testing.T) {
		c := New()
		c.AddReadiness("postgres", time.Second, alwaysOK)
		c.AddReadiness("cache", time.Second, alwaysFail("cache miss"))
		c.SetReady(true)
		execN(c, 1, failStreak)

		w := serveReady(c)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		rep := decodeReport(t, w)
		assert.Contains(t, rep.Checks, "cache")
		assert.NotContains(t, rep.Checks, "postgres")
	})
}

func TestIsReady(t *testing.T) {
	c := New()
	c.AddReadiness("postgres", time.Second, alwaysOK)

	assert.False(t, c.IsReady())

	c.SetReady(true)
	assert.True(t, c.IsReady())

	c.SetReady(false)
	assert.False(t, c.IsReady())
}

func TestProbeRecovery(t *testing.T) {
	failing := true
	c := New()
	c.AddLiveness("flaky", time.Second, func(_ context.Context) error {
		if failing {
			return errors.New("down")
		}
		return nil
	})

	execN(c, 0, failStreak)
	assert.False(t, c.probes[0].healthy.Load())

	failing = false
	execN(c, 0, recoverStreak)
	assert.True(t, c.probes[0].healthy.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	c := New()
	c.AddLiveness("noop", time.Second, alwaysOK)
	c.Start(context.Background(), 50*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	c.Stop()
	c.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	c.AddLiveness("l", time.Second, alwaysFail("err"))
	c.AddReadiness("r", time.Second, alwaysOK)
	c.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx, 5*time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.IsReady()
				serveLive(c)
				serveReady(c)
			}
		}()
	}
	wg.Wait()
	c.Stop()
}

func TestGoroutineCount(t *testing.T) {
	assert.NoError(t, GoroutineCount(100000)(context.Background()))

	err := GoroutineCount(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit 0")
}

func TestGCPause(t *testing.T) {
	assert.NoError(t, GCPause(time.Hour)(context.Background()))
}

func TestPing(t *testing.T) {
	ok := Ping(pingFunc(func(_ context.Context) error { return nil }))
	assert.NoError(t, ok(context.Background()))

	bad := Ping(pingFunc(func(_ context.Context) error { return errors.New("no route") }))
	assert.Error(t, bad(context.Background()))
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
