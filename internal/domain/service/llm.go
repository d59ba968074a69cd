package service

import "context"

// ChatCompleter sends a single-turn prompt to a language model and returns its raw text reply.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
