package dialog

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ssolovev/fishmonger/internal/logging"
	"github.com/ssolovev/fishmonger/pkg/domain"
	"github.com/ssolovev/fishmonger/pkg/format"
	"github.com/ssolovev/fishmonger/pkg/ports"
)

// emailRe is deliberately loose: one @, no whitespace, a dot in the
// domain part. The commerce backend does its own validation.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// startCommand resets the dialog from any state.
const startCommand = "/start"

// Hooks defines optional callbacks for observability.
type Hooks struct {
	// OnTransition fires after an event was processed, with the state
	// the session was in and the state it ended in (equal when the
	// event did not advance the dialog).
	OnTransition func(ctx context.Context, userID string, from, to domain.DialogState)
}

// Machine drives the conversation. It owns no state of its own; the
// session is loaded and persisted by the caller around each Step.
type Machine struct {
	commerce ports.Commerce
	logger   *slog.Logger
	hooks    Hooks
}

// Option configures the Machine.
type Option func(*Machine)

// WithLogger configures a logger for commerce failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithHooks registers lifecycle hooks.
func WithHooks(hooks Hooks) Option {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// New creates a Machine bound to a commerce client.
func New(commerce ports.Commerce, opts ...Option) *Machine {
	m := &Machine{
		commerce: commerce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Step processes one event. It mutates sess only when the transition's
// side effects succeeded, so the session is always left in a valid
// state. The returned reply is never nil when err is nil; err is
// reserved for context cancellation.
func (m *Machine) Step(ctx context.Context, sess *domain.Session, ev domain.Event) (*domain.Reply, error) {
	from := sess.State

	reply, err := m.step(ctx, sess, ev)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// Commerce failure: keep the prior state, tell the user.
		m.logger.Warn("commerce call failed, state not advanced",
			"user_id", ev.UserID,
			"state", string(from),
			"err", err,
		)
		sess.State = from
		reply = format.Unavailable()
	}

	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(ctx, ev.UserID, from, sess.State)
	}
	return reply, nil
}

func (m *Machine) step(ctx context.Context, sess *domain.Session, ev domain.Event) (*domain.Reply, error) {
	// The /start command resets the dialog regardless of state.
	if ev.Type == domain.EventText && strings.TrimSpace(ev.Text) == startCommand {
		return m.toMenu(ctx, sess)
	}

	if !sess.State.Valid() {
		sess.State = domain.StateStart
	}

	switch sess.State {
	case domain.StateStart, domain.StateCompleted:
		return m.toMenu(ctx, sess)

	case domain.StateBrowsingMenu:
		return m.stepMenu(ctx, sess, ev)

	case domain.StateViewingProduct:
		return m.stepProduct(ctx, sess, ev)

	case domain.StateCart:
		return m.stepCart(ctx, sess, ev)

	case domain.StateAwaitingEmail:
		return m.stepEmail(ctx, sess, ev)
	}

	// Unreachable: Valid() forced a known state above.
	return m.toMenu(ctx, sess)
}

func (m *Machine) stepMenu(ctx context.Context, sess *domain.Session, ev domain.Event) (*domain.Reply, error) {
	if ev.Type == domain.EventCallback {
		switch ev.Callback.Action {
		case domain.ActionProduct:
			return m.toProduct(ctx, sess, ev.Callback.ProductID)
		case domain.ActionCart:
			return m.toCart(ctx, sess)
		}
	}
	return m.toMenu(ctx, sess)
}

func (m *Machine) stepProduct(ctx context.Context, sess *domain.Session, ev domain.Event) (*domain.Reply, error) {
	if ev.Type == domain.EventCallback {
		switch ev.Callback.Action {
		case domain.ActionAdd:
			return m.addToCart(ctx, sess, ev.Callback)
		case domain.ActionBack:
			return m.toMenu(ctx, sess)
		case domain.ActionCart:
			return m.toCart(ctx, sess)
		}
	}
	// Default: re-render the product currently being viewed.
	return m.toProduct(ctx, sess, sess.ProductID)
}

func (m *Machine) stepCart(ctx context.Context, sess *domain.Session, ev domain.Event) (*domain.Reply, error) {
	if ev.Type == domain.EventCallback {
		switch ev.Callback.Action {
		case domain.ActionCheckout:
			sess.State = domain.StateAwaitingEmail
			return format.EmailPrompt(), nil
		case domain.ActionBack:
			return m.toMenu(ctx, sess)
		case domain.ActionRemove:
			cart, err := m.commerce.RemoveFromCart(ctx, sess.CartID, ev.Callback.ItemID)
			if err != nil {
				return nil, err
			}
			return format.Cart(cart), nil
		}
	}
	return m.toCart(ctx, sess)
}

func (m *Machine) stepEmail(ctx context.Context, sess *domain.Session, ev domain.Event) (*domain.Reply, error) {
	if ev.Type != domain.EventText {
		return format.EmailPrompt(), nil
	}

	email := strings.TrimSpace(ev.Text)
	if !emailRe.MatchString(email) {
		return format.InvalidEmail(), nil
	}

	order, err := m.commerce.Checkout(ctx, sess.CartID, email)
	if err != nil {
		return nil, err
	}
	sess.State = domain.StateCompleted
	return format.Order(order), nil
}

// toMenu fetches the catalog and moves the session to the menu.
func (m *Machine) toMenu(ctx context.Context, sess *domain.Session) (*domain.Reply, error) {
	products, err := m.commerce.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	sess.State = domain.StateBrowsingMenu
	sess.ProductID = ""
	return format.Menu(products), nil
}

// toProduct fetches one product and moves the session to its detail
// view. An empty or unknown id falls back to the menu.
func (m *Machine) toProduct(ctx context.Context, sess *domain.Session, productID string) (*domain.Reply, error) {
	if productID == "" {
		return m.toMenu(ctx, sess)
	}
	product, err := m.commerce.GetProduct(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		// Stale button: the product left the catalog.
		return m.toMenu(ctx, sess)
	}
	if err != nil {
		return nil, err
	}
	sess.State = domain.StateViewingProduct
	sess.ProductID = productID
	return format.Product(product), nil
}

// toCart fetches the cart and moves the session to the cart view.
func (m *Machine) toCart(ctx context.Context, sess *domain.Session) (*domain.Reply, error) {
	cart, err := m.commerce.GetCart(ctx, sess.CartID)
	if err != nil {
		return nil, err
	}
	sess.State = domain.StateCart
	sess.ProductID = ""
	return format.Cart(cart), nil
}

// addToCart performs the add mutation and returns to the menu state
// with a confirmation.
func (m *Machine) addToCart(ctx context.Context, sess *domain.Session, cb domain.Callback) (*domain.Reply, error) {
	productID := cb.ProductID
	if productID == "" {
		productID = sess.ProductID
	}
	product, err := m.commerce.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if _, err := m.commerce.AddToCart(ctx, sess.CartID, productID, cb.Quantity); err != nil {
		return nil, err
	}
	sess.State = domain.StateBrowsingMenu
	sess.ProductID = ""

	reply := format.Added(product, cb.Quantity)
	reply.Keyboard = [][]domain.Button{
		{{Label: "Cart", Callback: domain.Callback{Action: domain.ActionCart}}},
		{{Label: "Back to menu", Callback: domain.Callback{Action: domain.ActionBack}}},
	}
	return reply, nil
}
