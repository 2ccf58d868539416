// Package chat answers visitor questions about the club through a generative-language assistant.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/erise-club/website/core"
)

const (
	SystemPrompt = "You are a helpful assistant for the E.R.I.S.E. (Engineers For renewable Energy " +
		"'Innovation & Environmental sustainability') scientific club. The club is located at the " +
		"Higher National School of Renewable Energies, Environment, and Sustainable Development in " +
		"Batna, Algeria. Answer questions about the club, its mission, renewable energy, and " +
		"environmental sustainability. Keep answers concise, friendly, and helpful."

	Greeting = "Hello! I am the E.R.I.S.E. Club Assistant. How can I help you learn more about " +
		"our club, events, or renewable energy?"

	FallbackReply = "Sorry, I am having trouble connecting right now. Please try again later."
	EmptyReply    = "Sorry, I could not generate a response."

	MaxMessageLen = 2000
)

// ErrNotConfigured is returned by assistants lacking a credential.
var ErrNotConfigured = errors.New("chat assistant is not configured")

type (
	// Assistant sends one prompt to a language model and returns its text output.
	Assistant interface {
		Ask(ctx context.Context, systemPrompt, message string) (string, error)
	}

	Message struct {
		Message string `json:"message" validate:"required,max=2000"`
	}

	Reply struct {
		Reply    string `json:"reply"`
		Fallback bool   `json:"fallback"`
	}

	Service struct {
		assistant Assistant
		timeout   time.Duration
		logger    core.Logger
	}
)

func (m *Message) Validate(validate *validator.Validate) error {
	m.Message = strings.TrimSpace(m.Message)
	return validate.Struct(m)
}

func NewService(assistant Assistant, timeout time.Duration, logger core.Logger) *Service {
	return &Service{assistant: assistant, timeout: timeout, logger: logger}
}

// Reply never fails: any assistant error is logged and answered with FallbackReply.
func (svc *Service) Reply(ctx context.Context, msg Message) Reply {
	if svc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.timeout)
		defer cancel()
	}

	text, err := svc.assistant.Ask(ctx, SystemPrompt, msg.Message)
	if err != nil {
		if errors.Cause(err) != ErrNotConfigured {
			svc.logger.Warn(errors.Wrap(err, "asking assistant").Error())
		}
		return Reply{Reply: FallbackReply, Fallback: true}
	}
	if strings.TrimSpace(text) == "" {
		return Reply{Reply: EmptyReply}
	}
	return Reply{Reply: text}
}
