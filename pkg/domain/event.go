package domain

import (
	"strconv"
	"strings"
)

// EventType tags the kind of inbound dialog event.
type EventType string

const (
	// EventText is a plain text message from the user.
	EventText EventType = "text"
	// EventCallback is a button press carrying a callback token.
	EventCallback EventType = "callback"
)

// CallbackAction enumerates the actions a callback token can encode.
type CallbackAction string

const (
	// ActionUnknown marks a token that did not parse; the dialog
	// machine treats it as "re-render the current menu".
	ActionUnknown  CallbackAction = ""
	ActionProduct  CallbackAction = "product"
	ActionAdd      CallbackAction = "add"
	ActionBack     CallbackAction = "back"
	ActionCart     CallbackAction = "cart"
	ActionRemove   CallbackAction = "remove"
	ActionCheckout CallbackAction = "checkout"
)

// Callback is the typed payload of a button press.
type Callback struct {
	Action    CallbackAction
	ProductID string // set for ActionProduct and ActionAdd
	ItemID    string // set for ActionRemove
	Quantity  int    // set for ActionAdd
}

// Event is a single inbound user event, consumed once by the dialog
// machine and never persisted.
type Event struct {
	UserID   string
	Type     EventType
	Text     string   // set when Type == EventText
	Callback Callback // set when Type == EventCallback
}

// TextEvent builds a text event.
func TextEvent(userID, text string) Event {
	return Event{UserID: userID, Type: EventText, Text: text}
}

// CallbackEvent builds a callback event from a raw token.
func CallbackEvent(userID, token string) Event {
	return Event{UserID: userID, Type: EventCallback, Callback: ParseCallback(token)}
}

// ParseCallback decodes a callback token into a typed Callback.
// Tokens are colon-separated: "product:<id>", "add:<id>:<qty>",
// "remove:<item-id>", "back", "cart", "checkout". Anything else
// yields ActionUnknown rather than an error.
func ParseCallback(token string) Callback {
	parts := strings.Split(token, ":")
	switch CallbackAction(parts[0]) {
	case ActionProduct:
		if len(parts) == 2 && parts[1] != "" {
			return Callback{Action: ActionProduct, ProductID: parts[1]}
		}
	case ActionAdd:
		if len(parts) == 3 && parts[1] != "" {
			qty, err := strconv.Atoi(parts[2])
			if err == nil && qty > 0 {
				return Callback{Action: ActionAdd, ProductID: parts[1], Quantity: qty}
			}
		}
	case ActionRemove:
		if len(parts) == 2 && parts[1] != "" {
			return Callback{Action: ActionRemove, ItemID: parts[1]}
		}
	case ActionBack:
		if len(parts) == 1 {
			return Callback{Action: ActionBack}
		}
	case ActionCart:
		if len(parts) == 1 {
			return Callback{Action: ActionCart}
		}
	case ActionCheckout:
		if len(parts) == 1 {
			return Callback{Action: ActionCheckout}
		}
	}
	return Callback{Action: ActionUnknown}
}

// Token encodes the callback back into its wire form. The zero value
// encodes to the empty string.
func (c Callback) Token() string {
	switch c.Action {
	case ActionProduct:
		return "product:" + c.ProductID
	case ActionAdd:
		return "add:" + c.ProductID + ":" + strconv.Itoa(c.Quantity)
	case ActionRemove:
		return "remove:" + c.ItemID
	case ActionBack, ActionCart, ActionCheckout:
		return string(c.Action)
	}
	return ""
}
