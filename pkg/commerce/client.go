package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ssolovev/fishmonger/internal/logging"
	"github.com/ssolovev/fishmonger/pkg/domain"
)

// Client talks to the commerce backend. It implements ports.Commerce.
type Client struct {
	httpc  *http.Client
	base   string
	tokens *tokenSource
	logger *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
		c.tokens.httpc = httpc
	}
}

// WithLogger configures a logger for retries and refreshes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the given backend and credentials.
func New(baseURL, clientID, clientSecret string, opts ...Option) *Client {
	httpc := &http.Client{Timeout: 10 * time.Second}
	c := &Client{
		httpc:  httpc,
		base:   strings.TrimRight(baseURL, "/"),
		tokens: newTokenSource(httpc, baseURL, clientID, clientSecret),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListProducts returns the full catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var resp envelope[[]productData]
	if err := c.do(ctx, http.MethodGet, "/pcm/products/", nil, &resp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(resp.Data))
	for _, d := range resp.Data {
		p, err := c.toProduct(d)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

// GetProduct returns one product with its stock and main image joined
// in. Stock and image lookups are best-effort: losing them degrades
// the detail view, it does not fail it.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var resp envelope[productData]
	if err := c.do(ctx, http.MethodGet, "/catalog/products/"+productID, nil, &resp); err != nil {
		return nil, err
	}
	product, err := c.toProduct(resp.Data)
	if err != nil {
		return nil, err
	}

	if stock, err := c.getStock(ctx, productID); err == nil {
		product.StockKg = stock
	} else {
		c.logger.Debug("stock lookup failed", "product_id", productID, "err", err)
	}
	if href, err := c.getImageURL(ctx, productID); err == nil {
		product.ImageURL = href
	} else {
		c.logger.Debug("image lookup failed", "product_id", productID, "err", err)
	}
	return product, nil
}

// GetCart returns the cart's items and total. The backend creates the
// cart implicitly when it is first referenced.
func (c *Client) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	// Referencing the cart creates it if needed.
	var created envelope[struct {
		ID string `json:"id"`
	}]
	if err := c.do(ctx, http.MethodGet, "/v2/carts/"+cartID, nil, &created); err != nil {
		return nil, err
	}
	return c.getCartItems(ctx, cartID)
}

// AddToCart adds quantity units of the product and returns the cart.
func (c *Client) AddToCart(ctx context.Context, cartID, productID string, quantity int) (*domain.Cart, error) {
	payload := map[string]any{
		"data": map[string]any{
			"id":       productID,
			"type":     "cart_item",
			"quantity": quantity,
		},
	}
	var resp envelopeWithMeta[[]cartItemData]
	if err := c.do(ctx, http.MethodPost, "/v2/carts/"+cartID+"/items", payload, &resp); err != nil {
		return nil, err
	}
	return c.toCart(cartID, resp)
}

// RemoveFromCart deletes one line item and returns the cart.
func (c *Client) RemoveFromCart(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	var resp envelopeWithMeta[[]cartItemData]
	if err := c.do(ctx, http.MethodDelete, "/v2/carts/"+cartID+"/items/"+itemID, nil, &resp); err != nil {
		return nil, err
	}
	return c.toCart(cartID, resp)
}

// Checkout registers the customer under the email and places the order.
func (c *Client) Checkout(ctx context.Context, cartID, email string) (*domain.Order, error) {
	// The backend requires a customer record; registration failures
	// for already-known emails are not fatal.
	if err := c.createCustomer(ctx, email); err != nil {
		c.logger.Debug("customer registration skipped", "err", err)
	}

	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	address := map[string]any{
		"first_name": name,
		"last_name":  name,
		"line_1":     "pickup",
		"city":       "pickup",
		"postcode":   "00000",
		"country":    "US",
	}
	payload := map[string]any{
		"data": map[string]any{
			"customer": map[string]any{
				"email": email,
				"name":  name,
			},
			"billing_address":  address,
			"shipping_address": address,
		},
	}

	var resp envelope[orderData]
	if err := c.do(ctx, http.MethodPost, "/v2/carts/"+cartID+"/checkout", payload, &resp); err != nil {
		return nil, err
	}

	var meta metaBlock
	if err := decodeMeta(resp.Data.Meta, &meta); err != nil {
		return nil, err
	}
	price := meta.DisplayPrice.price()
	return &domain.Order{
		ID:             resp.Data.ID,
		Email:          email,
		TotalMinor:     price.Amount,
		TotalFormatted: price.Formatted,
	}, nil
}

func (c *Client) createCustomer(ctx context.Context, email string) error {
	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	payload := map[string]any{
		"data": map[string]any{
			"type":  "customer",
			"name":  name,
			"email": email,
		},
	}
	return c.do(ctx, http.MethodPost, "/v2/customers", payload, nil)
}

func (c *Client) getStock(ctx context.Context, productID string) (int, error) {
	var resp envelope[inventoryData]
	if err := c.do(ctx, http.MethodGet, "/v2/inventories/"+productID, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Data.Available, nil
}

func (c *Client) getImageURL(ctx context.Context, productID string) (string, error) {
	var rel envelope[relationshipData]
	if err := c.do(ctx, http.MethodGet, "/pcm/products/"+productID+"/relationships/main_image", nil, &rel); err != nil {
		return "", err
	}
	if rel.Data.ID == "" {
		return "", domain.ErrNotFound
	}
	var file envelope[fileData]
	if err := c.do(ctx, http.MethodGet, "/v2/files/"+rel.Data.ID, nil, &file); err != nil {
		return "", err
	}
	return file.Data.Link.Href, nil
}

func (c *Client) getCartItems(ctx context.Context, cartID string) (*domain.Cart, error) {
	var resp envelopeWithMeta[[]cartItemData]
	if err := c.do(ctx, http.MethodGet, "/v2/carts/"+cartID+"/items", nil, &resp); err != nil {
		return nil, err
	}
	return c.toCart(cartID, resp)
}

func (c *Client) toCart(cartID string, resp envelopeWithMeta[[]cartItemData]) (*domain.Cart, error) {
	cart := &domain.Cart{ID: cartID, Items: make([]domain.CartItem, 0, len(resp.Data))}

	for _, d := range resp.Data {
		var meta itemMetaBlock
		if err := decodeMeta(d.Meta, &meta); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ID:             d.ID,
			ProductID:      d.ProductID,
			Name:           d.Name,
			Quantity:       d.Quantity,
			UnitPriceMinor: meta.DisplayPrice.WithTax.Unit.Amount,
			LineTotalMinor: meta.DisplayPrice.WithTax.Value.Amount,
		})
	}

	var meta metaBlock
	if err := decodeMeta(resp.Meta, &meta); err != nil {
		return nil, err
	}
	price := meta.DisplayPrice.price()
	cart.TotalMinor = price.Amount
	cart.TotalFormatted = price.Formatted
	return cart, nil
}

func (c *Client) toProduct(d productData) (*domain.Product, error) {
	var meta metaBlock
	if err := decodeMeta(d.Meta, &meta); err != nil {
		return nil, err
	}
	price := meta.DisplayPrice.price()
	return &domain.Product{
		ID:             d.ID,
		Name:           d.Attributes.Name,
		Description:    d.Attributes.Description,
		PriceMinor:     price.Amount,
		PriceFormatted: price.Formatted,
	}, nil
}

// do executes one API call: marshal, authenticate, send with a single
// transient retry, refresh the token once on 401, decode into out.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrCommerceUnavailable, err)
		}

		resp, err := c.send(ctx, method, path, token, body)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			c.logger.Debug("access token rejected, refreshing", "path", path)
			c.tokens.Invalidate(token)
			continue
		}
		return decodeResponse(resp, out)
	}
}

// send issues the request, retrying once on transient network failure.
func (c *Client) send(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpc.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		c.logger.Debug("transient request failure, retrying",
			"method", method,
			"path", path,
			"err", err,
		)
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrCommerceUnavailable, lastErr)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: backend returned %s", domain.ErrCommerceUnavailable, resp.Status)
	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend rejected request: %s: %s", resp.Status, detail)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
