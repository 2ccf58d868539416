package chat_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/chat"
	dummychat "github.com/erise-club/website/services/chat/dummy"
)

type warnCounter struct {
	core.Logger
	warnings int
}

func (l *warnCounter) Warn(string, ...interface{}) { l.warnings++ }

type slowAssistant struct{}

func (slowAssistant) Ask(ctx context.Context, _, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(time.Second):
		return "too late", nil
	}
}

func TestService_Reply(t *testing.T) {
	tests := []struct {
		name      string
		assistant chat.Assistant
		timeout   time.Duration
		want      chat.Reply
		wantWarns int
	}{
		{
			name:      "answer",
			assistant: dummychat.NewAssistant("We promote renewable energy."),
			want:      chat.Reply{Reply: "We promote renewable energy."},
		},
		{
			name:      "empty answer",
			assistant: dummychat.NewAssistant("  \n"),
			want:      chat.Reply{Reply: chat.EmptyReply},
		},
		{
			name:      "service failure",
			assistant: &dummychat.Assistant{Err: errors.New("503 unavailable")},
			want:      chat.Reply{Reply: chat.FallbackReply, Fallback: true},
			wantWarns: 1,
		},
		{
			name:      "not configured",
			assistant: &dummychat.Assistant{Err: chat.ErrNotConfigured},
			want:      chat.Reply{Reply: chat.FallbackReply, Fallback: true},
		},
		{
			name:      "timeout",
			assistant: slowAssistant{},
			timeout:   20 * time.Millisecond,
			want:      chat.Reply{Reply: chat.FallbackReply, Fallback: true},
			wantWarns: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &warnCounter{}
			svc := chat.NewService(tt.assistant, tt.timeout, logger)

			got := svc.Reply(context.Background(), chat.Message{Message: "What is E.R.I.S.E.?"})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantWarns, logger.warnings)
		})
	}
}

func TestMessage_Validate(t *testing.T) {
	validate, _ := core.NewValidator()

	tests := []struct {
		name    string
		msg     string
		want    string
		wantErr bool
	}{
		{name: "empty", msg: "", wantErr: true},
		{name: "blank", msg: " \t\n ", wantErr: true},
		{name: "too long", msg: strings.Repeat("a", chat.MaxMessageLen+1), wantErr: true},
		{name: "max length", msg: strings.Repeat("é", chat.MaxMessageLen), want: strings.Repeat("é", chat.MaxMessageLen)},
		{name: "trimmed", msg: "  hello  ", want: "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := chat.Message{Message: tt.msg}
			err := m.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, m.Message)
		})
	}
}
