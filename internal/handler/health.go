package handler

import "net/http"

type modelStatus interface {
	Name() string
	Loaded() bool
}

type healthResponse struct {
	Status       string `json:"status"`
	CaptionModel string `json:"caption_model"`
	ModelLoaded  bool   `json:"model_loaded"`
}

// Health godoc
// @Summary Service health
// @Description Reports whether the captioning model is loaded. Always 200 since the model is reloaded on demand.
// @Tags health
// @Produce json
// @Success 200 {object} handler.healthResponse
// @Router /healthz [get]
func Health(model modelStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:       "ok",
			CaptionModel: model.Name(),
			ModelLoaded:  model.Loaded(),
		}
		if !resp.ModelLoaded {
			resp.Status = "degraded"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
