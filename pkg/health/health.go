// Package health serves /livez and /readyz for the POS server.
//
// Checks are polled by one background loop. A check flips to unhealthy only
// after FailureThreshold consecutive failures and back after one success, so
// a single slow ping does not take the register offline.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// DefaultFailureThreshold is the number of consecutive failures before a
// check reports unhealthy.
const DefaultFailureThreshold = 3

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

// Probe selects which endpoint a check contributes to.
type Probe uint8

const (
	Liveness Probe = iota
	Readiness
)

type check struct {
	name    string
	probe   Probe
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[string]
	fails   int
}

func (c *check) run(ctx context.Context, threshold int) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.fn(ctx); err != nil {
		msg := err.Error()
		c.lastErr.Store(&msg)
		c.fails++
		if c.fails >= threshold {
			c.healthy.Store(false)
		}
		return
	}
	c.lastErr.Store(nil)
	c.fails = 0
	c.healthy.Store(true)
}

// Health tracks check results and the manual readiness flag.
type Health struct {
	threshold int
	ready     atomic.Bool

	mu     sync.RWMutex
	checks []*check
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{threshold: DefaultFailureThreshold}
}

// Add registers a check. Checks start healthy.
func (h *Health) Add(name string, probe Probe, timeout time.Duration, fn CheckFunc) {
	c := &check{name: name, probe: probe, timeout: timeout, fn: fn}
	c.healthy.Store(true)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, c)
}

// Run polls every check each interval until ctx is done.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		h.poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *Health) poll(ctx context.Context) {
	for _, c := range h.snapshot() {
		if ctx.Err() != nil {
			return
		}
		c.run(ctx, h.threshold)
	}
}

// SetReady sets the manual readiness flag; it is cleared during shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Failures returns the failing checks of probe keyed by name. Readiness also
// fails while the manual flag is off.
func (h *Health) Failures(probe Probe) map[string]string {
	failures := map[string]string{}
	for _, c := range h.snapshot() {
		if c.probe != probe || c.healthy.Load() {
			continue
		}
		msg := "check is unhealthy"
		if p := c.lastErr.Load(); p != nil {
			msg = *p
		}
		failures[c.name] = msg
	}
	if probe == Readiness && !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	return failures
}

// Handler serves the status of probe as JSON: 200 {"status":"ok"} or 503
// with the failing checks.
func (h *Health) Handler(probe Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		failures := h.Failures(probe)

		status := http.StatusOK
		e := jx.GetEncoder()
		defer jx.PutEncoder(e)
		e.Obj(func(e *jx.Encoder) {
			if len(failures) == 0 {
				e.Field("status", func(e *jx.Encoder) { e.Str("ok") })
				return
			}
			status = http.StatusServiceUnavailable
			e.Field("status", func(e *jx.Encoder) { e.Str("unhealthy") })
			e.Field("checks", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					for name, msg := range failures {
						e.Field(name, func(e *jx.Encoder) { e.Str(msg) })
					}
				})
			})
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(e.Bytes())
	}
}

func (h *Health) snapshot() []*check {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*check(nil), h.checks...)
}
