// Package narrative expands an image caption into a short story using a
// hosted chat model.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/kdduha/image-narrator/internal/config"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

const (
	systemPrompt = "You are an AI assistant that provides insightful analysis of images based on their captions."

	userPromptTemplate = "Analyze this image and write a story on the basis of the analysis: %s"
)

type Service struct {
	logger       *log.Logger
	openaiClient openai.Client
	modelName    string
}

func NewService(logger *log.Logger, openaiClient openai.Client, cfg config.OpenAIConfig) *Service {
	return &Service{
		logger:       logger,
		openaiClient: openaiClient,
		modelName:    cfg.Model,
	}
}

// Analyze sends a single chat turn for caption and returns the first
// choice's text. Errors from the API are returned as is.
func (s *Service) Analyze(ctx context.Context, caption string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf(userPromptTemplate, caption)),
		},
	}

	resp, err := s.openaiClient.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion")
	}

	s.logger.Printf("analysis from %s: %d chars, %d tokens\n", resp.Model, len(resp.Choices[0].Message.Content), resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}
