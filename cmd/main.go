package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kdduha/image-narrator/internal/caption"
	"github.com/kdduha/image-narrator/internal/config"
	"github.com/kdduha/image-narrator/internal/fetcher"
	"github.com/kdduha/image-narrator/internal/handler"
	"github.com/kdduha/image-narrator/internal/narrative"
	"github.com/kdduha/image-narrator/internal/service"
	"github.com/kdduha/image-narrator/internal/speech"
	"github.com/kdduha/image-narrator/internal/storage"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// @title Image Narrator API
// @version 1.0
// @description Captions an image, writes a story about it and reads the story aloud.
// @BasePath /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.Default()

	backend, err := newCaptionBackend(cfg.Caption)
	if err != nil {
		logger.Fatalf("caption backend: %v", err)
	}
	model := caption.NewModel(logger, backend, cfg.Caption.Serialize)
	if err := model.Init(ctx); err != nil {
		logger.Println("caption model will be loaded on first request")
	}

	synthesizer, err := newSynthesizer(cfg.Speech)
	if err != nil {
		logger.Fatalf("speech backend: %v", err)
	}
	logger.Printf("speech backend: %s\n", synthesizer.Name())

	store, err := storage.NewAudioStore(logger, cfg.Audio.Dir)
	if err != nil {
		logger.Fatalf("audio store: %v", err)
	}
	if cfg.Minio.Enable {
		mirror, err := storage.NewMinioMirror(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatalf("minio init error: %v", err)
		}
		store.SetMirror(mirror)
		logger.Printf("mirroring audio to minio bucket %s\n", cfg.Minio.BucketName)
	}
	if cfg.Audio.TTL > 0 {
		go store.RunJanitor(ctx, cfg.Audio.TTL, cfg.Audio.SweepInterval)
		logger.Printf("evicting audio older than %s\n", cfg.Audio.TTL)
	}

	narrator := narrative.NewService(
		logger,
		openai.NewClient(
			option.WithAPIKey(cfg.OpenAI.APIKey),
			option.WithBaseURL(cfg.OpenAI.BaseURL),
			option.WithRequestTimeout(cfg.OpenAI.Timeout),
		), cfg.OpenAI)

	analyzeService := service.NewAnalyzeService(
		logger,
		model,
		fetcher.New(logger, &http.Client{Timeout: cfg.Fetch.Timeout}, cfg.Fetch.MaxBytes, cfg.Fetch.MaxPixels),
		narrator,
		synthesizer,
		store,
	)

	router := handler.NewRouter(cfg.Server,
		handler.NewAnalyzeHandler(logger, analyzeService),
		handler.NewAudioHandler(logger, store),
		model,
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Printf("server started :%s\n", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Println("server stopped")
}

func newCaptionBackend(cfg config.CaptionConfig) (caption.Backend, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Backend {
	case "huggingface":
		return caption.NewHuggingFace(cfg.Model, cfg.HFToken, cfg.InferenceURL, cfg.HubURL, client), nil
	case "openai":
		return caption.NewOpenAI(openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(client),
		), cfg.VisionModel), nil
	default:
		return nil, fmt.Errorf("unknown caption backend %q", cfg.Backend)
	}
}

func newSynthesizer(cfg config.SpeechConfig) (speech.Synthesizer, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Backend {
	case "google":
		return speech.NewGoogle(cfg.GoogleURL, cfg.Language, client), nil
	case "openai":
		return speech.NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Voice, client), nil
	default:
		return nil, fmt.Errorf("unknown speech backend %q", cfg.Backend)
	}
}
