// Package format renders commerce data into reply text and keyboards.
// All functions are pure: same input, same reply, no I/O.
package format

import (
	"fmt"
	"strings"

	"github.com/ssolovev/fishmonger/pkg/domain"
)

// Quantities offered by the add-to-cart keyboard, in kilograms.
var Quantities = []int{1, 5, 10}

// Menu renders the product list with one button per product and a
// cart shortcut.
func Menu(products []domain.Product) *domain.Reply {
	if len(products) == 0 {
		return &domain.Reply{
			Text: "The shop is empty right now. Please check back later.",
		}
	}

	keyboard := make([][]domain.Button, 0, len(products)+1)
	for _, p := range products {
		keyboard = append(keyboard, []domain.Button{{
			Label:    p.Name,
			Callback: domain.Callback{Action: domain.ActionProduct, ProductID: p.ID},
		}})
	}
	keyboard = append(keyboard, []domain.Button{{
		Label:    "Cart",
		Callback: domain.Callback{Action: domain.ActionCart},
	}})

	return &domain.Reply{
		Text:     "Please choose:",
		Keyboard: keyboard,
	}
}

// Product renders a product detail with quantity buttons.
func Product(p *domain.Product) *domain.Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s per kg\n", p.Name, Price(p))
	if p.StockKg > 0 {
		fmt.Fprintf(&b, "%d kg in stock\n", p.StockKg)
	}
	b.WriteString(p.Description)

	qtyRow := make([]domain.Button, 0, len(Quantities))
	for _, q := range Quantities {
		qtyRow = append(qtyRow, domain.Button{
			Label:    fmt.Sprintf("%d kg", q),
			Callback: domain.Callback{Action: domain.ActionAdd, ProductID: p.ID, Quantity: q},
		})
	}

	return &domain.Reply{
		Text:     b.String(),
		ImageURL: p.ImageURL,
		Keyboard: [][]domain.Button{
			qtyRow,
			{{Label: "Cart", Callback: domain.Callback{Action: domain.ActionCart}}},
			{{Label: "Back", Callback: domain.Callback{Action: domain.ActionBack}}},
		},
	}
}

// Cart renders the cart's line items and total, with a removal button
// per item.
func Cart(cart *domain.Cart) *domain.Reply {
	if len(cart.Items) == 0 {
		return &domain.Reply{
			Text: "Your cart is empty.",
			Keyboard: [][]domain.Button{
				{{Label: "Back to menu", Callback: domain.Callback{Action: domain.ActionBack}}},
			},
		}
	}

	var b strings.Builder
	keyboard := make([][]domain.Button, 0, len(cart.Items)+2)
	for _, item := range cart.Items {
		fmt.Fprintf(&b, "%s\n%d kg x %s = %s\n\n",
			item.Name,
			item.Quantity,
			minor(item.UnitPriceMinor),
			minor(item.LineTotalMinor),
		)
		keyboard = append(keyboard, []domain.Button{{
			Label:    "Remove " + item.Name,
			Callback: domain.Callback{Action: domain.ActionRemove, ItemID: item.ID},
		}})
	}
	fmt.Fprintf(&b, "Total: %s", total(cart))

	keyboard = append(keyboard,
		[]domain.Button{{Label: "Checkout", Callback: domain.Callback{Action: domain.ActionCheckout}}},
		[]domain.Button{{Label: "Back to menu", Callback: domain.Callback{Action: domain.ActionBack}}},
	)

	return &domain.Reply{Text: b.String(), Keyboard: keyboard}
}

// Added renders the confirmation shown after an add-to-cart.
func Added(p *domain.Product, quantity int) *domain.Reply {
	return &domain.Reply{
		Text: fmt.Sprintf("Added %d kg of %s to your cart.", quantity, p.Name),
	}
}

// EmailPrompt asks for the email to place the order under.
func EmailPrompt() *domain.Reply {
	return &domain.Reply{Text: "Please send your email address to place the order."}
}

// InvalidEmail asks again after a malformed email.
func InvalidEmail() *domain.Reply {
	return &domain.Reply{Text: "That does not look like an email address. Please try again."}
}

// Order renders the order confirmation.
func Order(order *domain.Order) *domain.Reply {
	text := fmt.Sprintf(
		"Thank you! Your order is placed.\nTotal: %s\nA confirmation will be sent to %s.",
		orderTotal(order), order.Email,
	)
	return &domain.Reply{Text: text}
}

// Unavailable is the generic message for a commerce backend failure.
func Unavailable() *domain.Reply {
	return &domain.Reply{Text: "The shop is temporarily unavailable. Please try again later."}
}

// Price returns the product's display price, preferring the backend's
// formatted string.
func Price(p *domain.Product) string {
	if p.PriceFormatted != "" {
		return p.PriceFormatted
	}
	return minor(p.PriceMinor)
}

func total(cart *domain.Cart) string {
	if cart.TotalFormatted != "" {
		return cart.TotalFormatted
	}
	return minor(cart.TotalMinor)
}

func orderTotal(order *domain.Order) string {
	if order.TotalFormatted != "" {
		return order.TotalFormatted
	}
	return minor(order.TotalMinor)
}

func minor(v int64) string {
	return fmt.Sprintf("$%d.%02d", v/100, v%100)
}
