package document

import "context"

// Store answers which required onboarding documents a client has not
// uploaded yet.
type Store interface {
	Missing(ctx context.Context, clientID uint, required []string) ([]string, error)
}
