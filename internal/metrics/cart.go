// Package metrics exposes prometheus instruments for cart activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart actions and their outcomes.
type CartMetrics struct {
	actions       *prometheus.CounterVec
	quantity      prometheus.Histogram
	storeFailures *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	actions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_actions_total",
		Help: "Cart clicks handled, by action and outcome.",
	}, []string{"action", "outcome"})
	quantity := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_cart_quantity",
		Help:    "Total cart quantity after a mutation.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 50},
	})
	storeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_store_failures_total",
		Help: "Failed cart persistence operations.",
	}, []string{"op"})
	reg.MustRegister(actions, quantity, storeFailures)
	return &CartMetrics{
		actions:       actions,
		quantity:      quantity,
		storeFailures: storeFailures,
	}
}

// IncAction counts a dispatched action with its outcome (applied, noop, error).
func (c *CartMetrics) IncAction(action, outcome string) {
	if c == nil || c.actions == nil {
		return
	}
	c.actions.WithLabelValues(normalizeLabel(action), normalizeLabel(outcome)).Inc()
}

// ObserveQuantity records the badge total after a mutation.
func (c *CartMetrics) ObserveQuantity(total int) {
	if c == nil || c.quantity == nil {
		return
	}
	c.quantity.Observe(float64(total))
}

// IncStoreFailure counts a failed store operation.
func (c *CartMetrics) IncStoreFailure(op string) {
	if c == nil || c.storeFailures == nil {
		return
	}
	c.storeFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
