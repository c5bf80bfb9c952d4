package caption

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/kdduha/image-narrator/internal/fetcher"
)

const imageToText = "image-to-text"

type huggingFace struct {
	model        string
	token        string
	inferenceURL string
	hubURL       string

	client *http.Client
}

var _ Backend = &huggingFace{}

// NewHuggingFace returns a backend that runs model on the Hugging Face
// inference API. The hub is queried on Load to check the model exists and
// is an image-to-text model.
func NewHuggingFace(model, token, inferenceURL, hubURL string, httpClient *http.Client) Backend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &huggingFace{
		model:        model,
		token:        token,
		inferenceURL: strings.TrimRight(inferenceURL, "/"),
		hubURL:       strings.TrimRight(hubURL, "/"),
		client:       httpClient,
	}
}

func (h *huggingFace) Name() string { return "huggingface" }

func (h *huggingFace) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.hubURL+"/"+h.model, nil)
	if err != nil {
		return err
	}
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s: hub returned %s", h.model, resp.Status)
	}

	info := struct {
		ID          string `json:"id"`
		PipelineTag string `json:"pipeline_tag"`
	}{}
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("model %s: decode hub response: %w", h.model, err)
	}
	if info.PipelineTag != imageToText {
		return fmt.Errorf("model %s: pipeline %q is not %s", h.model, info.PipelineTag, imageToText)
	}
	return nil
}

func (h *huggingFace) Caption(ctx context.Context, img *fetcher.Image) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.inferenceURL+"/"+h.model, bytes.NewReader(img.Data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", img.MIME())
	req.Header.Set("Accept", "application/json")
	h.authorize(req)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := struct {
			Error string `json:"error"`
		}{}
		if sonic.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("inference returned %s: %s", resp.Status, apiErr.Error)
		}
		return "", fmt.Errorf("inference returned %s", resp.Status)
	}

	return Normalize(body)
}

func (h *huggingFace) authorize(req *http.Request) {
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
}
