package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/kdduha/image-narrator/internal/config"
	"github.com/kdduha/image-narrator/internal/models"
	"github.com/kdduha/image-narrator/internal/service"
	"github.com/kdduha/image-narrator/internal/storage"
)

type fakeAnalyzer struct {
	store *storage.AudioStore
	err   error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	path, err := f.store.Save(ctx, func(w io.Writer) error {
		_, err := io.WriteString(w, "ID3narration")
		return err
	})
	if err != nil {
		return nil, err
	}
	return &models.AnalyzeResponse{
		Caption:   "a boat",
		Analysis:  "A boat drifts.",
		AudioFile: path,
		Success:   true,
	}, nil
}

type fakeStatus struct{ loaded bool }

func (s fakeStatus) Name() string { return "fake" }
func (s fakeStatus) Loaded() bool { return s.loaded }

func newServer(t *testing.T, analyzeErr error) (*httptest.Server, *storage.AudioStore) {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	store, err := storage.NewAudioStore(logger, filepath.Join(t.TempDir(), "audio_outputs"))
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.ServerConfig{
		Timeout:        time.Minute,
		ThrottleLimit:  10,
		AllowedOrigins: []string{"*"},
	}
	router := NewRouter(cfg,
		NewAnalyzeHandler(logger, &fakeAnalyzer{store: store, err: analyzeErr}),
		NewAudioHandler(logger, store),
		fakeStatus{loaded: true},
	)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func postAnalyze(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/analyze-image", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var e models.ErrorResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %s", err)
	}
	return e.Detail
}

func TestAnalyzeThenDownload(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp := postAnalyze(t, srv, `{"image_url": "https://example.com/boat.jpg"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var got models.AnalyzeResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Caption == "" || got.Analysis == "" || got.AudioFile == "" {
		t.Fatalf("Unexpected response %+v", got)
	}

	audio, err := http.Get(srv.URL + "/audio/" + filepath.Base(got.AudioFile))
	if err != nil {
		t.Fatal(err)
	}
	defer audio.Body.Close()

	if audio.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", audio.StatusCode)
	}
	if expected, actual := "audio/mpeg", audio.Header.Get("Content-Type"); expected != actual {
		t.Errorf("Expected content type %q, got %q", expected, actual)
	}
	data, _ := io.ReadAll(audio.Body)
	if expected := "ID3narration"; string(data) != expected {
		t.Errorf("Expected %q, got %q", expected, data)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		detail string
	}{
		{
			name:   "invalid json",
			body:   `{"image_url": `,
			status: http.StatusBadRequest,
			detail: "invalid JSON",
		},
		{
			name: "fetch failure",
			err: &service.StageError{
				Stage: service.StageFetch,
				Kind:  service.KindInput,
				Err:   errors.New("dial tcp: no such host"),
			},
			status: http.StatusBadRequest,
			detail: "Error fetching image",
		},
		{
			name: "model unavailable",
			err: &service.StageError{
				Stage: service.StageModel,
				Kind:  service.KindModelUnavailable,
				Err:   errors.New("hub down"),
			},
			status: http.StatusInternalServerError,
			detail: "Image captioning model not loaded",
		},
		{
			name: "upstream failure",
			err: &service.StageError{
				Stage: service.StageAnalysis,
				Kind:  service.KindUpstream,
				Err:   errors.New("401 Unauthorized"),
			},
			status: http.StatusInternalServerError,
			detail: "Narrative API error: 401 Unauthorized",
		},
		{
			name:   "unclassified failure",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			detail: "Image analysis failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.err)
			body := tt.body
			if body == "" {
				body = `{"image_url": "https://example.com/boat.jpg"}`
			}

			resp := postAnalyze(t, srv, body)
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if detail := decodeDetail(t, resp); !strings.HasPrefix(detail, tt.detail) {
				t.Errorf("Expected detail starting with %q, got %q", tt.detail, detail)
			}
		})
	}
}

func TestAudioNotFound(t *testing.T) {
	srv, _ := newServer(t, nil)

	for _, path := range []string{
		"/audio/analysis_never-generated.mp3",
		"/audio/..%2F..%2Fetc%2Fpasswd",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
		if detail := decodeDetail(t, resp); detail != "Audio file not found" {
			t.Errorf("%s: unexpected detail %q", path, detail)
		}
		resp.Body.Close()
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got healthResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "ok" || !got.ModelLoaded {
		t.Errorf("Unexpected health %+v", got)
	}
}
