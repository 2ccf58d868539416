// Package gemini implements chat.Assistant with the Gemini generative-language API.
package gemini

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/chat"
)

type assistant struct {
	client *genai.Client
	model  string
}

var _ chat.Assistant = (*assistant)(nil)

// NewAssistant returns an assistant answering with conf.Model. Without an API key, the returned
// assistant fails every request with chat.ErrNotConfigured.
func NewAssistant(ctx context.Context, conf core.ChatConfig) (chat.Assistant, error) {
	if conf.APIKey == "" {
		return &assistant{model: conf.Model}, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  conf.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if conf.BaseURL != "" {
		cc.HTTPOptions.BaseURL = conf.BaseURL
	}
	if conf.Timeout > 0 {
		timeout := conf.Timeout
		cc.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "creating genai client")
	}
	return &assistant{client: client, model: conf.Model}, nil
}

func (a *assistant) Ask(ctx context.Context, systemPrompt, message string) (string, error) {
	if a.client == nil {
		return "", chat.ErrNotConfigured
	}

	start := time.Now()
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(message), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", errors.Wrapf(err, "generating content with %s (after %s)", a.model, time.Since(start).Round(time.Millisecond))
	}
	return resp.Text(), nil
}
