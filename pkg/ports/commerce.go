package ports

import (
	"context"

	"github.com/ssolovev/fishmonger/pkg/domain"
)

// Commerce defines the calls the dialog machine makes against the
// external commerce backend. Every call is synchronous; implementations
// handle authentication and transient-failure retries internally and
// return domain.ErrCommerceUnavailable once retries are exhausted.
type Commerce interface {
	// ListProducts returns the full catalog.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// GetProduct returns one product, joined with its inventory and
	// main-image lookups. Returns domain.ErrNotFound for unknown ids.
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// GetCart returns the cart's line items and total. The backend
	// creates the cart implicitly on first reference.
	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)

	// AddToCart adds quantity units of a product and returns the
	// updated cart.
	AddToCart(ctx context.Context, cartID, productID string, quantity int) (*domain.Cart, error)

	// RemoveFromCart deletes one line item and returns the updated cart.
	RemoveFromCart(ctx context.Context, cartID, itemID string) (*domain.Cart, error)

	// Checkout places the order for the cart under the given email.
	Checkout(ctx context.Context, cartID, email string) (*domain.Order, error)
}
