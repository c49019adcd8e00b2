package search

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/exp/slog"
)

const expandPrompt = `You are a helpful assistant that transforms how someone is feeling into search terms for finding relevant Christian sermons.

Given a user's emotional state or feeling, generate search terms that describe what KIND of sermon content would HELP them - not content about their problem, but content that provides the SOLUTION.

Examples:
- "I'm feeling anxious" -> "peace, trusting God, letting go of worry, finding rest, calming your mind, faith over fear"
- "I'm grieving" -> "comfort in pain, God's presence, healing from loss, hope after death, strength in sorrow"
- "I feel lost and confused" -> "finding direction, God's purpose for your life, seeking wisdom, clarity, divine guidance"
- "I'm angry at someone" -> "forgiveness, releasing bitterness, letting go, making peace, healing relationships"

Rules:
1. Focus on SOLUTIONS, not the problem
2. Use natural spoken language that would appear in a sermon (avoid specific Bible verse references)
3. Keep output concise - just the search terms, no explanations
4. Output should be a natural phrase suitable for semantic search
5. Do not use bullet points or formatting - just flowing text`

type Expander interface {
	Expand(ctx context.Context, feeling string) string
}

// OpenAIExpander turns a feeling into solution-oriented search terms. It
// never returns an error: when the completion fails the literal input is
// used as the search query instead.
type OpenAIExpander struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIExpander(apiKey string, logger *slog.Logger) *OpenAIExpander {
	return &OpenAIExpander{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
		logger: logger,
	}
}

func (o *OpenAIExpander) Expand(ctx context.Context, feeling string) string {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.3,
		MaxTokens:   200,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: expandPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: feeling,
			},
		},
	})
	if err != nil {
		o.logger.Warn("query expansion failed, using literal query", slog.String("error", err.Error()))
		return feeling
	}
	if len(resp.Choices) == 0 {
		return feeling
	}

	expanded := strings.TrimSpace(resp.Choices[0].Message.Content)
	if expanded == "" {
		return feeling
	}

	o.logger.Info("query expanded", slog.String("expanded", expanded))

	return expanded
}
