// Package composer generates personalized outreach emails for qualified
// prospects via the Anthropic Messages API.
package composer

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/model"
)

const systemPrompt = `You are an expert sales representative for a modern web agency.
Your goal is to write a short, professional, and warm cold-email (less than 150 words) to a business owner.
You offer web design renovation or creation services.
Avoid marketing jargon, be direct and helpful.
End with a clear call to action (e.g., a free audit or a call).`

// Prospect is the structured input the composer personalizes from. The
// reasons are the classifier's evidence strings, in evaluation order.
type Prospect struct {
	Name          string
	City          string
	Sector        string
	PresenceState model.PresenceState
	Reasons       []string
}

// Composer generates outreach message bodies. Generate never fails for
// well-formed input: on an internal error it returns an error-describing
// string so the caller always has content to log or send.
type Composer interface {
	Generate(ctx context.Context, p Prospect) string
}

// Subject builds the outreach subject line for a prospect name.
func Subject(name string) string {
	return "Optimisation de votre présence web - " + name
}

// Option configures the composer.
type Option func(*sdkComposer)

// WithModel overrides the default model.
func WithModel(m string) Option {
	return func(c *sdkComposer) {
		c.model = m
	}
}

// WithMaxTokens overrides the default response token cap.
func WithMaxTokens(n int64) Option {
	return func(c *sdkComposer) {
		c.maxTokens = n
	}
}

// WithSimulation switches the composer into deterministic offline mode.
func WithSimulation() Option {
	return func(c *sdkComposer) {
		c.simulation = true
	}
}

type sdkComposer struct {
	client     sdk.Client
	model      string
	maxTokens  int64
	simulation bool
}

// New creates a Composer backed by the official anthropic-sdk-go.
func New(apiKey string, opts ...Option) Composer {
	c := &sdkComposer{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     "claude-haiku-4-5-20251001",
		maxTokens: 1024,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *sdkComposer) Generate(ctx context.Context, p Prospect) string {
	if c.simulation {
		return "Bonjour " + p.Name + ",\n\n" +
			"[SIMULATION] Nous avons remarqué que votre présence web mérite un coup de neuf. " +
			"Nous serions ravis de vous proposer un audit gratuit.\n"
	}

	temperature := 0.7
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: sdk.Float(temperature),
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userPrompt(p))),
		},
	})
	if err != nil {
		zap.L().Warn("composer: generation failed", zap.String("prospect", p.Name), zap.Error(err))
		return "Error generating message: " + err.Error()
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "Error generating message: empty response"
	}
	return text
}

func userPrompt(p Prospect) string {
	situation := "has an outdated website"
	if p.PresenceState == model.PresenceNoSite {
		situation = "has no website"
	}

	var sb strings.Builder
	sb.WriteString("Prospect Name: " + p.Name + "\n")
	sb.WriteString("City: " + p.City + "\n")
	sb.WriteString("Sector: " + p.Sector + "\n\n")
	sb.WriteString("Situation:\nThe prospect " + situation + ".\n\n")
	sb.WriteString("Specific issues observed:\n" + strings.Join(p.Reasons, ", ") + "\n\n")
	sb.WriteString("Write the email content (Subject + Body).")
	return sb.String()
}
