package observability_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssolovev/fishmonger/internal/observability"
	"github.com/ssolovev/fishmonger/pkg/domain"
)

type stubCommerce struct {
	err error
}

func (s *stubCommerce) ListProducts(context.Context) ([]domain.Product, error) {
	return nil, s.err
}

func (s *stubCommerce) GetProduct(context.Context, string) (*domain.Product, error) {
	return &domain.Product{ID: "p1"}, s.err
}

func (s *stubCommerce) GetCart(context.Context, string) (*domain.Cart, error) {
	return &domain.Cart{}, s.err
}

func (s *stubCommerce) AddToCart(context.Context, string, string, int) (*domain.Cart, error) {
	return &domain.Cart{}, s.err
}

func (s *stubCommerce) RemoveFromCart(context.Context, string, string) (*domain.Cart, error) {
	return &domain.Cart{}, s.err
}

func (s *stubCommerce) Checkout(context.Context, string, string) (*domain.Order, error) {
	return &domain.Order{ID: "o1"}, s.err
}

func TestObserveTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveTransition(context.Background(), "42", domain.StateStart, domain.StateBrowsingMenu)
	m.ObserveTransition(context.Background(), "42", domain.StateStart, domain.StateBrowsingMenu)
	m.ObserveTransition(context.Background(), "43", domain.StateCart, domain.StateAwaitingEmail)

	counter := m.Transitions.WithLabelValues(string(domain.StateStart), string(domain.StateBrowsingMenu))
	assert.Equal(t, float64(2), testutil.ToFloat64(counter))
	counter = m.Transitions.WithLabelValues(string(domain.StateCart), string(domain.StateAwaitingEmail))
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestInstrumentCommerce_RecordsDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	client := m.InstrumentCommerce(&stubCommerce{})

	_, err := client.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	_, err = client.Checkout(context.Background(), "c1", "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(m.CommerceSeconds),
		"one histogram child per instrumented operation")
	assert.Equal(t, 0, testutil.CollectAndCount(m.CommerceErrors))
}

func TestInstrumentCommerce_CountsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	client := m.InstrumentCommerce(&stubCommerce{err: errors.New("backend down")})

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)
	_, err = client.AddToCart(context.Background(), "c1", "p1", 5)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommerceErrors.WithLabelValues("list_products")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CommerceErrors.WithLabelValues("add_to_cart")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.CommerceErrors.WithLabelValues("checkout")))
}
