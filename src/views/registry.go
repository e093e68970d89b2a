package views

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"spendwise-server/src/events"
	"spendwise-server/src/gateway"
	"spendwise-server/src/reconcile"
)

// Registry hands out one ExpensesView per user. Views that are not asked
// for within the idle timeout are dropped by Sweep.
type Registry struct {
	gw  gateway.Gateway
	rec *reconcile.Reconciler
	bus *events.Bus
	log zerolog.Logger
	now func() time.Time

	mu    sync.Mutex
	views map[string]*ExpensesView
}

func NewRegistry(gw gateway.Gateway, bus *events.Bus, log zerolog.Logger) *Registry {
	return &Registry{
		gw:    gw,
		rec:   reconcile.New(gw, log),
		bus:   bus,
		log:   log,
		now:   time.Now,
		views: make(map[string]*ExpensesView),
	}
}

// For returns the view of userID, creating it on first use.
func (r *Registry) For(userID string) *ExpensesView {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.views[userID]
	if !ok {
		v = newExpensesView(userID, r.gw, r.rec, r.bus, r.log)
		r.views[userID] = v
	}
	v.lastUsed.Store(r.now().UnixNano())
	return v
}

// Evict drops the view of userID and its event subscriptions.
func (r *Registry) Evict(userID string) {
	r.mu.Lock()
	v, ok := r.views[userID]
	delete(r.views, userID)
	r.mu.Unlock()

	if ok {
		v.close()
	}
}

// Sweep evicts every view unused for longer than idle and reports how many
// it dropped. A request still holding an evicted view finishes normally.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle).UnixNano()

	r.mu.Lock()
	var dropped []*ExpensesView
	for userID, v := range r.views {
		if v.lastUsed.Load() < cutoff {
			dropped = append(dropped, v)
			delete(r.views, userID)
		}
	}
	r.mu.Unlock()

	for _, v := range dropped {
		v.close()
	}
	if len(dropped) > 0 {
		r.log.Debug().Int("evicted", len(dropped)).Msg("Idle views evicted")
	}
	return len(dropped)
}

// Janitor runs Sweep every interval until ctx is done.
func (r *Registry) Janitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) Close() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*ExpensesView)
	r.mu.Unlock()

	for _, v := range views {
		v.close()
	}
}
