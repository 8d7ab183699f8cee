// Package observability wires Prometheus metrics and the operational
// HTTP endpoint (/metrics, /healthz).
package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ssolovev/fishmonger/pkg/domain"
	"github.com/ssolovev/fishmonger/pkg/ports"
)

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	Transitions     *prometheus.CounterVec
	CommerceSeconds *prometheus.HistogramVec
	CommerceErrors  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on the registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fishmonger_dialog_transitions_total",
				Help: "Dialog events processed, labeled by the state they left from and landed in",
			},
			[]string{"from", "to"},
		),
		CommerceSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "fishmonger_commerce_request_duration_seconds",
				Help: "Duration of commerce backend calls",
			},
			[]string{"op"},
		),
		CommerceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fishmonger_commerce_errors_total",
				Help: "Commerce backend calls that failed after retries",
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.Transitions, m.CommerceSeconds, m.CommerceErrors)
	return m
}

// ObserveTransition is a dialog hook recording one processed event.
func (m *Metrics) ObserveTransition(_ context.Context, _ string, from, to domain.DialogState) {
	m.Transitions.WithLabelValues(string(from), string(to)).Inc()
}

// InstrumentCommerce wraps a commerce client so every call records its
// duration and failures.
func (m *Metrics) InstrumentCommerce(next ports.Commerce) ports.Commerce {
	return &instrumentedCommerce{next: next, metrics: m}
}

type instrumentedCommerce struct {
	next    ports.Commerce
	metrics *Metrics
}

func (c *instrumentedCommerce) observe(op string, start time.Time, err error) {
	c.metrics.CommerceSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.CommerceErrors.WithLabelValues(op).Inc()
	}
}

func (c *instrumentedCommerce) ListProducts(ctx context.Context) ([]domain.Product, error) {
	start := time.Now()
	products, err := c.next.ListProducts(ctx)
	c.observe("list_products", start, err)
	return products, err
}

func (c *instrumentedCommerce) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	start := time.Now()
	product, err := c.next.GetProduct(ctx, productID)
	c.observe("get_product", start, err)
	return product, err
}

func (c *instrumentedCommerce) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	start := time.Now()
	cart, err := c.next.GetCart(ctx, cartID)
	c.observe("get_cart", start, err)
	return cart, err
}

func (c *instrumentedCommerce) AddToCart(ctx context.Context, cartID, productID string, quantity int) (*domain.Cart, error) {
	start := time.Now()
	cart, err := c.next.AddToCart(ctx, cartID, productID, quantity)
	c.observe("add_to_cart", start, err)
	return cart, err
}

func (c *instrumentedCommerce) RemoveFromCart(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	start := time.Now()
	cart, err := c.next.RemoveFromCart(ctx, cartID, itemID)
	c.observe("remove_from_cart", start, err)
	return cart, err
}

func (c *instrumentedCommerce) Checkout(ctx context.Context, cartID, email string) (*domain.Order, error) {
	start := time.Now()
	order, err := c.next.Checkout(ctx, cartID, email)
	c.observe("checkout", start, err)
	return order, err
}
