// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/courier/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider makes exactly one delivery attempt per Send call and
// never retries on its own.
type Provider interface {
	// Send delivers an email message through this provider.
	// The message is either accepted whole or not at all.
	Send(ctx context.Context, msg *email.Message) error

	// Name returns the human-readable name of this provider.
	Name() string
}
