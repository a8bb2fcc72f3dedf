package ai

import "context"

// Completer sends a single prompt to a text-completion model and returns the
// raw completion text. The caller owns parsing; the completion may arrive
// wrapped in markdown fencing or be malformed entirely.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}
