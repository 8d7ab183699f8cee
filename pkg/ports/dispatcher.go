package ports

import (
	"context"

	"github.com/ssolovev/fishmonger/pkg/domain"
)

// Dispatcher defines how rendered replies reach the user. The dialog
// machine emits replies, and the transport adapter implements this
// interface to deliver them.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, reply *domain.Reply) error
}
