package speech

import (
	"context"
	"errors"
	"io"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"
)

type openAISpeech struct {
	client *goopenai.Client
	model  goopenai.SpeechModel
	voice  goopenai.SpeechVoice
}

var _ Synthesizer = &openAISpeech{}

// NewOpenAI returns a synthesizer for an OpenAI-compatible /audio/speech
// endpoint. The voice reads the text in whatever language it is written in.
func NewOpenAI(apiKey, baseURL, model, voice string, httpClient *http.Client) Synthesizer {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &openAISpeech{
		client: goopenai.NewClientWithConfig(cfg),
		model:  goopenai.SpeechModel(model),
		voice:  goopenai.SpeechVoice(voice),
	}
}

func (o *openAISpeech) Name() string { return "openai" }

func (o *openAISpeech) Synthesize(ctx context.Context, text string, w io.Writer) error {
	if text == "" {
		return errors.New("no text to speak")
	}

	resp, err := o.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return err
	}
	defer resp.Close()

	_, err = io.Copy(w, resp)
	return err
}
