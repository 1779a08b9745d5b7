package proxy

import (
	"context"
	"fmt"
)

// ErrNotProxied means the relay service does not know the message. It is an answer, not a failure.
var ErrNotProxied = fmt.Errorf("message was not proxied")

// Resolver looks up relayed messages. The id may be either the relayed or the original message.
type Resolver interface {
	Resolve(ctx context.Context, messageID string) (*Message, error)
}
