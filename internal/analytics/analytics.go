// Package analytics is the second C9 subscriber: an in-memory counter of
// expense transitions, grounded on the same map-shaped observability
// convention internal/pkg/worker.Pool.Metrics uses rather than a new
// metrics dependency.
package analytics

import (
	"context"
	"fmt"
	"sync"

	"ringi.sh/ringi/internal/domain"
	"ringi.sh/ringi/internal/eventbus"
	"ringi.sh/ringi/internal/outbox"
)

// Collector counts every transition it observes, broken down by event type
// and by applicant. It never fails a handler call: a counter can't be
// wrong in a way worth surfacing to the caller.
type Collector struct {
	mu          sync.Mutex
	byType      map[domain.EventType]int
	byApplicant map[string]int
}

// NewCollector builds an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		byType:      make(map[domain.EventType]int),
		byApplicant: make(map[string]int),
	}
}

// RegisterOnEventBus wires the Collector against the in-process bus for
// every event kind it produces.
func RegisterOnEventBus(bus *eventbus.Bus, c *Collector) {
	for _, t := range allEventTypes {
		bus.Subscribe(t, "analytics", eventbus.Handler(c.record))
	}
}

// RegisterOnOutbox wires the Collector against the durable outbox.Bus.
func RegisterOnOutbox(bus *outbox.Bus, c *Collector) {
	for _, t := range allEventTypes {
		bus.Subscribe(t, "analytics", outbox.Handler(c.record))
	}
}

var allEventTypes = []domain.EventType{
	domain.EventExpenseCreated,
	domain.EventExpenseSubmitted,
	domain.EventExpenseApproved,
	domain.EventExpenseRejected,
}

func (c *Collector) record(_ context.Context, event domain.Event) error {
	applicant := event.ApplicantID
	if applicant == "" {
		applicant = event.ActorID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byType[event.Type]++
	c.byApplicant[applicant]++
	return nil
}

// Metrics snapshots current counters as a flat map suitable for scraping,
// e.g. {"event.EXPENSE_SUBMITTED": 3, "applicant.user-1": 2}.
func (c *Collector) Metrics() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.byType)+len(c.byApplicant))
	for t, n := range c.byType {
		out[fmt.Sprintf("event.%s", t)] = n
	}
	for applicant, n := range c.byApplicant {
		out[fmt.Sprintf("applicant.%s", applicant)] = n
	}
	return out
}
