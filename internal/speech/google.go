package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// The translate endpoint rejects longer inputs.
const maxChunkRunes = 100

type google struct {
	endpoint string
	lang     string
	client   *http.Client
}

var _ Synthesizer = &google{}

// NewGoogle returns a synthesizer backed by the Google Translate speech
// endpoint. Text is spoken in lang, e.g. "en".
func NewGoogle(endpoint, lang string, httpClient *http.Client) Synthesizer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &google{
		endpoint: endpoint,
		lang:     lang,
		client:   httpClient,
	}
}

func (g *google) Name() string { return "google" }

// Synthesize fetches one MP3 per chunk of text and writes them back to back.
// MP3 frames are self-delimiting so the concatenation plays as one file.
func (g *google) Synthesize(ctx context.Context, text string, w io.Writer) error {
	chunks := splitText(text, maxChunkRunes)
	if len(chunks) == 0 {
		return errors.New("no text to speak")
	}

	for i, chunk := range chunks {
		if err := g.fetchChunk(ctx, chunk, i, len(chunks), w); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

func (g *google) fetchChunk(ctx context.Context, chunk string, idx, total int, w io.Writer) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", g.lang)
	q.Set("q", chunk)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Referer", "http://translate.google.com/")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech endpoint returned %s", resp.Status)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("speech endpoint returned no audio")
	}
	return nil
}

// splitText breaks text into pieces of at most max runes. Pieces end on word
// boundaries where possible and after sentence punctuation when the piece is
// already half full. Words longer than max are cut.
func splitText(text string, max int) []string {
	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > max {
			flush()
			runes := []rune(word)
			chunks = append(chunks, string(runes[:max]))
			word = string(runes[max:])
		}

		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n

		if last, _ := utf8.DecodeLastRuneInString(word); curLen >= max/2 && strings.ContainsRune(".!?", last) {
			flush()
		}
	}
	flush()
	return chunks
}
