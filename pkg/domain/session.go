package domain

// DialogState identifies the conversation's position in the dialog
// state machine.
type DialogState string

const (
	// StateStart is the state of a session that has never been stepped.
	StateStart DialogState = "start"
	// StateBrowsingMenu means the user is looking at the product menu.
	StateBrowsingMenu DialogState = "browsing_menu"
	// StateViewingProduct means the user is looking at a product detail.
	StateViewingProduct DialogState = "viewing_product"
	// StateCart means the user is looking at their cart.
	StateCart DialogState = "cart"
	// StateAwaitingEmail means the bot asked for an email to check out.
	StateAwaitingEmail DialogState = "awaiting_email"
	// StateCompleted means an order was just placed.
	StateCompleted DialogState = "completed"
)

// Valid reports whether s is one of the enumerated dialog states.
func (s DialogState) Valid() bool {
	switch s {
	case StateStart, StateBrowsingMenu, StateViewingProduct,
		StateCart, StateAwaitingEmail, StateCompleted:
		return true
	}
	return false
}

// SessionVersion is the current wire version of the Session record.
// Records with an unknown version are discarded and replaced with a
// fresh default session instead of failing deserialization.
const SessionVersion = 1

// Session is the per-user persisted dialog record.
type Session struct {
	Version int         `json:"version"`
	State   DialogState `json:"current_state"`
	CartID  string      `json:"cart_id"`

	// ProductID is the product being viewed while State is
	// StateViewingProduct, empty otherwise.
	ProductID string `json:"product_id,omitempty"`
}

// NewSession creates a default session at the start state with the
// given cart identifier.
func NewSession(cartID string) *Session {
	return &Session{
		Version: SessionVersion,
		State:   StateStart,
		CartID:  cartID,
	}
}
