package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/kdduha/image-narrator/internal/models"
	"github.com/kdduha/image-narrator/internal/service"
)

type analyzeService interface {
	Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error)
}

type AnalyzeHandler struct {
	logger  *log.Logger
	service analyzeService
}

func NewAnalyzeHandler(logger *log.Logger, service analyzeService) *AnalyzeHandler {
	return &AnalyzeHandler{
		logger:  logger,
		service: service,
	}
}

// Analyze godoc
// @Summary Caption, narrate and voice an image
// @Description Fetches the image at image_url, captions it, expands the caption into a story and synthesizes the story as MP3.
// @Tags analyze
// @Accept json
// @Produce json
// @Param request body models.AnalyzeRequest true "Analyze request"
// @Success 200 {object} models.AnalyzeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /analyze-image [post]
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	resp, err := h.service.Analyze(r.Context(), &req)
	if err != nil {
		status, detail := http.StatusInternalServerError, fmt.Sprintf("Image analysis failed: %s", err)
		if se, ok := service.AsStageError(err); ok {
			detail = se.Detail()
			if se.Kind == service.KindInput {
				status = http.StatusBadRequest
			}
		}
		h.logger.Printf("analyze-image %d: %v\n", status, err)
		writeError(w, status, detail)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
