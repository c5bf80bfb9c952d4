package caption

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/kdduha/image-narrator/internal/fetcher"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

const visionPrompt = "Write a one sentence caption describing this image. Reply with the caption only."

type vision struct {
	client openai.Client
	model  string
}

var _ Backend = &vision{}

// NewOpenAI returns a backend that captions with a vision-capable chat model
// on an OpenAI-compatible API.
func NewOpenAI(client openai.Client, model string) Backend {
	return &vision{
		client: client,
		model:  model,
	}
}

func (v *vision) Name() string { return "openai" }

func (v *vision) Load(ctx context.Context) error {
	m, err := v.client.Models.Get(ctx, v.model)
	if err != nil {
		return fmt.Errorf("model %s: %w", v.model, err)
	}
	if m.ID == "" {
		return fmt.Errorf("model %s: not found", v.model)
	}
	return nil
}

func (v *vision) Caption(ctx context.Context, img *fetcher.Image) (string, error) {
	imageData := fmt.Sprintf("data:%s;base64,%s", img.MIME(), base64.StdEncoding.EncodeToString(img.Data))

	resp, err := v.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(v.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(visionPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: imageData,
				}),
			}),
		},
		MaxCompletionTokens: openai.Int(60),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("vision model returned no choices")
	}

	caption := strings.TrimSpace(resp.Choices[0].Message.Content)
	if caption == "" {
		return "", errors.New("vision model returned an empty caption")
	}
	return caption, nil
}
