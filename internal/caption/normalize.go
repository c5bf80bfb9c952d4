package caption

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

type generated struct {
	GeneratedText string `json:"generated_text"`
}

// Normalize extracts the caption from an image-to-text response. Models
// answer with either a single object or a list of them; the first wins.
func Normalize(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", errors.New("empty caption response")
	}

	var text string
	switch raw[0] {
	case '[':
		var results []generated
		if err := sonic.Unmarshal(raw, &results); err != nil {
			return "", fmt.Errorf("decode caption list: %w", err)
		}
		if len(results) == 0 {
			return "", errors.New("caption response has no results")
		}
		text = results[0].GeneratedText
	case '{':
		var result generated
		if err := sonic.Unmarshal(raw, &result); err != nil {
			return "", fmt.Errorf("decode caption: %w", err)
		}
		text = result.GeneratedText
	default:
		return "", fmt.Errorf("unexpected caption response: %.64s", raw)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("caption response has empty text")
	}
	return text, nil
}
