// Package provisioner defines the contract with the external bot vendor that
// joins meetings on our behalf.
package provisioner

import (
	"context"
	"errors"
)

// ErrBotNotFound distinguishes "the vendor does not know this bot" from a
// transport or server failure.
var ErrBotNotFound = errors.New("provisioner: bot not found")

type Client interface {
	// CreateBot asks the vendor to join meetingURL. turnStreamURL is where the
	// bot pushes live speech turns; notifyURL receives lifecycle events.
	// Returns the vendor-assigned bot id.
	CreateBot(ctx context.Context, meetingURL, turnStreamURL, notifyURL string) (string, error)

	// FetchTranscript retrieves the vendor's authoritative transcript for a
	// finished call, as an opaque JSON payload.
	FetchTranscript(ctx context.Context, botID string) ([]byte, error)
}
