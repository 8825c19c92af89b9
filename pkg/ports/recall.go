package ports

import "context"

// Recall is an optional long-term memory store.
type Recall interface {
	// Recall returns up to limit memories of character relevant to situation.
	Recall(ctx context.Context, character, situation string, limit int) ([]string, error)
}
