// Package health implements liveness and readiness probes for the HTTP
// server. Probes run on a shared background ticker; a probe turns unhealthy
// only after three consecutive failures and recovers on the first success,
// so one slow database round trip does not take the service out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of a single component. A nil return means
// healthy.
type CheckFunc func(ctx context.Context) error

const (
	failStreak    = 3
	recoverStreak = 1
)

type probeKind int

const (
	liveness probeKind = iota
	readiness
)

// probe is one registered check plus its runtime state. exec is only ever
// called from the ticker goroutine, so the streak counters need no locking;
// healthy and failMsg are read by HTTP handlers and use atomics.
type probe struct {
	kind    probeKind
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	failMsg atomic.Pointer[string]

	badStreak int
	okStreak  int
}

func (p *probe) exec(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.fn(ctx); err != nil {
		msg := err.Error()
		p.failMsg.Store(&msg)
		p.okStreak = 0
		p.badStreak++
		if p.badStreak >= failStreak {
			p.healthy.Store(false)
		}
		return
	}

	p.failMsg.Store(nil)
	p.badStreak = 0
	p.okStreak++
	if p.okStreak >= recoverStreak {
		p.healthy.Store(true)
	}
}

// Checker runs registered probes and serves /livez and /readyz style
// endpoints. The zero value is not usable; call New.
type Checker struct {
	ready atomic.Bool

	mu     sync.Mutex
	probes []*probe
	stop   context.CancelFunc
}

// New returns a Checker in the not-ready state. Call SetReady(true) once
// startup has finished.
func New() *Checker {
	return &Checker{}
}

// AddLiveness registers a probe that gates the liveness endpoint. Liveness
// probes should detect a wedged process: goroutine leaks, runaway GC pauses.
func (c *Checker) AddLiveness(name string, timeout time.Duration, fn CheckFunc) {
	c.add(liveness, name, timeout, fn)
}

// AddReadiness registers a probe that gates the readiness endpoint. Readiness
// probes cover dependencies the server needs to answer requests, the database
// above all.
func (c *Checker) AddReadiness(name string, timeout time.Duration, fn CheckFunc) {
	c.add(readiness, name, timeout, fn)
}

func (c *Checker) add(kind probeKind, name string, timeout time.Duration, fn CheckFunc) {
	p := &probe{kind: kind, name: name, timeout: timeout, fn: fn}
	p.healthy.Store(true)

	c.mu.Lock()
	c.probes = append(c.probes, p)
	c.mu.Unlock()
}

// Start launches the probe loop. All probes run once immediately and then on
// every tick of interval until ctx is cancelled or Stop is called.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.stop = cancel
	probes := slices.Clone(c.probes)
	c.mu.Unlock()

	go func() {
		execAll := func() {
			for _, p := range probes {
				p.exec(ctx)
			}
		}
		execAll()

		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				execAll()
			}
		}
	}()
}

// Stop cancels the probe loop. Safe to call more than once.
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

// SetReady flips the manual readiness gate. Set false during graceful
// shutdown so load balancers stop routing new traffic before the listener
// closes.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// passes.
func (c *Checker) IsReady() bool {
	return c.ready.Load() && len(c.failing(readiness)) == 0
}

// LiveEndpoint serves the liveness report.
func (c *Checker) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, c.failing(liveness))
}

// ReadyEndpoint serves the readiness report. A closed manual gate shows up as
// the "ready" pseudo-check.
func (c *Checker) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := c.failing(readiness)
	if !c.ready.Load() {
		if failures == nil {
			failures = make(map[string]string, 1)
		}
		failures["ready"] = "server is not accepting traffic"
	}
	writeReport(w, failures)
}

func (c *Checker) failing(kind probeKind) map[string]string {
	c.mu.Lock()
	probes := slices.Clone(c.probes)
	c.mu.Unlock()

	var out map[string]string
	for _, p := range probes {
		if p.kind != kind || p.healthy.Load() {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		msg := "probe failing"
		if m := p.failMsg.Load(); m != nil {
			msg = *m
		}
		out[p.name] = msg
	}
	return out
}

type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeReport(w http.ResponseWriter, failures map[string]string) {
	rep := report{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		rep = report{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(rep)
}
