package dummychat

import (
	"context"
	"sync"

	"github.com/erise-club/website/core/chat"
)

// Assistant answers every message with a canned reply (or error) and records what it was asked.
type Assistant struct {
	Answer string
	Err    error

	mu    sync.Mutex
	asked []string
}

var _ chat.Assistant = (*Assistant)(nil)

func NewAssistant(answer string) *Assistant {
	return &Assistant{Answer: answer}
}

func (a *Assistant) Ask(ctx context.Context, _, message string) (string, error) {
	a.mu.Lock()
	a.asked = append(a.asked, message)
	a.mu.Unlock()

	if a.Err != nil {
		return "", a.Err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		return a.Answer, nil
	}
}

// Asked returns the messages received so far.
func (a *Assistant) Asked() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.asked...)
}
