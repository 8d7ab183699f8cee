package domain

// Product is a catalog entry as served by the commerce backend.
// Prices are in minor currency units (cents, kopecks).
type Product struct {
	ID             string
	Name           string
	Description    string
	PriceMinor     int64
	PriceFormatted string

	// ImageURL points at the product's main image, empty when the
	// catalog has none.
	ImageURL string

	// StockKg is the available inventory in kilograms.
	StockKg int
}

// Cart is the server-side cart referenced by a session.
type Cart struct {
	ID             string
	Items          []CartItem
	TotalMinor     int64
	TotalFormatted string
}

// CartItem is a single line in a cart.
type CartItem struct {
	ID             string // cart-item id, used for removal
	ProductID      string
	Name           string
	Quantity       int
	UnitPriceMinor int64
	LineTotalMinor int64
}

// Order is the confirmation returned by a successful checkout.
type Order struct {
	ID             string
	Email          string
	TotalMinor     int64
	TotalFormatted string
}
