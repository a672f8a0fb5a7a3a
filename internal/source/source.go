// Package source implements the comment feeds. Each feed turns one inbound
// message into one raw payload handed to a Sink.
package source

import (
	"context"
	"errors"
)

// ErrPayloadTooLarge is returned when a payload exceeds the configured limit.
var ErrPayloadTooLarge = errors.New("payload too large")

// Sink accepts raw comment payloads. relay.Service implements it.
type Sink interface {
	Submit(ctx context.Context, raw string) error
}
