package toast

import (
	"errors"
	"fmt"
)

// Sentinel errors for channel wiring and configuration.
var (
	// ErrNoProvider is returned when a handle is requested for a channel
	// that no Provider has been constructed for.
	ErrNoProvider = errors.New("toast: no provider for channel")

	// ErrChannelExists is returned when a second Provider is constructed
	// for a channel that is still live.
	ErrChannelExists = errors.New("toast: channel already provided")

	// ErrProviderClosed is reported when an operation reaches a Provider
	// that has been closed.
	ErrProviderClosed = errors.New("toast: provider closed")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("toast: invalid config")
)

// ChannelError wraps an error with the channel and operation it came from.
type ChannelError struct {
	Channel string
	Op      string // Operation that failed
	Err     error  // Underlying error
}

// Error returns the error message with channel context.
func (e *ChannelError) Error() string {
	return fmt.Sprintf("toast: channel %q: %s: %v", e.Channel, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ChannelError) Unwrap() error {
	return e.Err
}
