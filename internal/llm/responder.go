// Package llm produces the counterpart replies of demo conversations.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/nguyentranbao-ct/hds-chat/internal/config"
	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

// historyLimit bounds the messages sent as conversation history.
const historyLimit = 20

type ReplyInput struct {
	ContactName string
	UserID      string
	Language    string
	Message     string
	History     []models.Message
}

type Responder interface {
	Reply(ctx context.Context, in ReplyInput) (string, error)
}

// Renderer is the part of the translation store the canned responder needs.
type Renderer interface {
	Render(ctx context.Context, key string, data any) string
}

// NewResponder returns the genkit responder when a Google AI key is configured,
// otherwise canned replies.
func NewResponder(cfg *config.LLMConfig, renderer Renderer) (Responder, error) {
	if cfg.GoogleAIAPIKey == "" {
		return NewCannedResponder(renderer), nil
	}
	return NewGenkitResponder(context.Background(), cfg)
}

type cannedResponder struct {
	renderer Renderer
}

func NewCannedResponder(renderer Renderer) Responder {
	return &cannedResponder{renderer: renderer}
}

func (r *cannedResponder) Reply(ctx context.Context, in ReplyInput) (string, error) {
	return r.renderer.Render(ctx, "message.autoReply", map[string]any{"content": in.Message}), nil
}

const systemPrompt = `You are {{.ContactName}}, a care provider chatting with a patient through a health data app.
Answer briefly and kindly in the language "{{.Language}}". Never give a diagnosis.
{{- if .History}}
The conversation so far is provided as previous messages.
{{- end}}`

var promptTemplate = template.Must(template.New("prompt").Parse(systemPrompt))

type genkitResponder struct {
	genkit *genkit.Genkit
	model  string
	prompt *template.Template
}

func NewGenkitResponder(ctx context.Context, cfg *config.LLMConfig) (Responder, error) {
	googleAI := &googlegenai.GoogleAI{
		APIKey: cfg.GoogleAIAPIKey,
	}
	g := genkit.Init(ctx, genkit.WithPlugins(googleAI))

	return &genkitResponder{genkit: g, model: cfg.Model, prompt: promptTemplate}, nil
}

func (r *genkitResponder) buildPrompt(in ReplyInput) (string, error) {
	var buf bytes.Buffer
	if err := r.prompt.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// buildMessages maps the history to user/model turns, the user being the
// authenticated account, and appends the message being answered.
func buildMessages(system string, in ReplyInput) []*ai.Message {
	messages := []*ai.Message{ai.NewSystemTextMessage(system)}
	history := in.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.SenderID == in.UserID {
			messages = append(messages, ai.NewUserTextMessage(m.Content))
		} else {
			messages = append(messages, ai.NewModelTextMessage(m.Content))
		}
	}
	return append(messages, ai.NewUserTextMessage(in.Message))
}

func (r *genkitResponder) Reply(ctx context.Context, in ReplyInput) (string, error) {
	prompt, err := r.buildPrompt(in)
	if err != nil {
		return "", err
	}

	response, err := genkit.Generate(ctx, r.genkit,
		ai.WithMessages(buildMessages(prompt, in)...),
		ai.WithModelName(r.model),
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	text := strings.TrimSpace(response.Text())
	if text == "" {
		return "", fmt.Errorf("model returned an empty reply")
	}
	log.Debugw(ctx, "AI generated reply", "model", r.model, "length", len(text))
	return text, nil
}
