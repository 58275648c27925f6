// Package embed provides the client for the remote embedding service.
package embed

import "context"

// Provider converts a text chunk into its vector representation.
// Implementations may call remote APIs; tests substitute deterministic fakes.
type Provider interface {
	// Embed returns a fixed-length vector for the given text.
	Embed(ctx context.Context, text string) ([]float64, error)
}
