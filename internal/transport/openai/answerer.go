package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docfusion/internal/domain/search/answer"
)

// Answer generation parameters.
const (
	answerMaxTokens   = 500
	answerTemperature = 0.7
)

var errEmptyAnswer = errors.New("empty chat completion")

// Answerer synthesizes answers with a chat completion model.
type Answerer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewAnswerer creates a chat-completion answerer; cfg.Model is the chat model.
func NewAnswerer(cfg *Config) *Answerer {
	return &Answerer{
		client: cfg.client(),
		model:  cfg.Model,
		logger: cfg.logger(),
	}
}

// Answer asks the model to answer query from the given ranked documents.
func (a *Answerer) Answer(ctx context.Context, query string, sources []answer.Source) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: answer.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: answer.Prompt(query, sources)},
		},
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errEmptyAnswer
	}

	a.logger.Debug("Answer generated",
		zap.String("model", a.model),
		zap.Int("sources", len(sources)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}
