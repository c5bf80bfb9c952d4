package service

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/kdduha/image-narrator/internal/caption"
	"github.com/kdduha/image-narrator/internal/fetcher"
	"github.com/kdduha/image-narrator/internal/metrics"
	"github.com/kdduha/image-narrator/internal/models"
	"github.com/kdduha/image-narrator/internal/speech"
)

type captionModel interface {
	Ensure(ctx context.Context) error
	Caption(ctx context.Context, img *fetcher.Image) (string, error)
}

type imageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Image, error)
}

type narrator interface {
	Analyze(ctx context.Context, caption string) (string, error)
}

type audioStore interface {
	Save(ctx context.Context, write func(w io.Writer) error) (string, error)
}

type AnalyzeService struct {
	logger      *log.Logger
	model       captionModel
	fetcher     imageFetcher
	narrator    narrator
	synthesizer speech.Synthesizer
	store       audioStore
}

func NewAnalyzeService(
	logger *log.Logger,
	model captionModel,
	fetcher imageFetcher,
	narrator narrator,
	synthesizer speech.Synthesizer,
	store audioStore,
) *AnalyzeService {
	return &AnalyzeService{
		logger:      logger,
		model:       model,
		fetcher:     fetcher,
		narrator:    narrator,
		synthesizer: synthesizer,
		store:       store,
	}
}

// Analyze runs the whole pipeline for one image. The first failing stage
// stops it and is reported as a *StageError.
func (a *AnalyzeService) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	if err := a.run(StageValidate, func() error { return req.Validate() }); err != nil {
		return nil, &StageError{Stage: StageValidate, Kind: KindInput, Err: err}
	}

	if err := a.run(StageModel, func() error { return a.model.Ensure(ctx) }); err != nil {
		return nil, &StageError{Stage: StageModel, Kind: KindModelUnavailable, Err: err}
	}

	var img *fetcher.Image
	err := a.run(StageFetch, func() (err error) {
		a.logger.Printf("fetching image from URL: %s\n", req.ImageURL)
		img, err = a.fetcher.Fetch(ctx, req.ImageURL)
		return err
	})
	if err != nil {
		kind := KindInput
		if errors.Is(err, fetcher.ErrDecode) {
			kind = KindProcessing
		}
		return nil, &StageError{Stage: StageFetch, Kind: kind, Err: err}
	}

	var text string
	err = a.run(StageCaption, func() (err error) {
		text, err = a.model.Caption(ctx, img)
		return err
	})
	if err != nil {
		kind := KindProcessing
		if errors.Is(err, caption.ErrModelUnavailable) {
			kind = KindModelUnavailable
		}
		return nil, &StageError{Stage: StageCaption, Kind: kind, Err: err}
	}
	a.logger.Printf("generated caption: %s\n", text)

	var analysis string
	err = a.run(StageAnalysis, func() (err error) {
		analysis, err = a.narrator.Analyze(ctx, text)
		return err
	})
	if err != nil {
		return nil, &StageError{Stage: StageAnalysis, Kind: KindUpstream, Err: err}
	}

	var audioFile string
	err = a.run(StageSynthesize, func() (err error) {
		audioFile, err = a.store.Save(ctx, func(w io.Writer) error {
			return a.synthesizer.Synthesize(ctx, analysis, w)
		})
		return err
	})
	if err != nil {
		return nil, &StageError{Stage: StageSynthesize, Kind: KindSynthesis, Err: err}
	}
	a.logger.Printf("audio file generated: %s\n", audioFile)

	return &models.AnalyzeResponse{
		Caption:   text,
		Analysis:  analysis,
		AudioFile: audioFile,
		Success:   true,
	}, nil
}

func (a *AnalyzeService) run(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start)

	status := statusOK
	if err != nil {
		status = statusError
		a.logger.Printf("stage %s failed after %s: %v\n", stage, duration.Round(time.Millisecond), err)
	}
	metrics.PipelineStageTotal(stage, status)
	metrics.PipelineStageDuration(stage, status, duration)
	return err
}
