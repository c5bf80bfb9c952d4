package models

import (
	"fmt"
	"net/url"
)

// AnalyzeRequest represents request for analyze-image endpoint
type AnalyzeRequest struct {
	ImageURL string `json:"image_url" validate:"required" example:"https://example.com/cat.jpg"`
}

func (r AnalyzeRequest) Validate() error {
	if r.ImageURL == "" {
		return fmt.Errorf("image_url is empty")
	}

	u, err := url.ParseRequestURI(r.ImageURL)
	if err != nil {
		return fmt.Errorf("image_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("image_url scheme %q is not supported", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("image_url has no host")
	}
	return nil
}

type AnalyzeResponse struct {
	Caption   string `json:"caption" example:"a cat sitting on a window sill"`
	Analysis  string `json:"analysis"`
	AudioFile string `json:"audio_file" example:"audio_outputs/analysis_3f2b9c1e-8f0a-4f5e-9a51-3f6b2f1d7c44.mp3"`
	Success   bool   `json:"success" example:"true"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail" example:"Audio file not found"`
}
