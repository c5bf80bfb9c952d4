package handler

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/kdduha/image-narrator/internal/storage"
)

const audioNotFound = "Audio file not found"

type audioStore interface {
	Open(name string) (*os.File, error)
}

type AudioHandler struct {
	logger *log.Logger
	store  audioStore
}

func NewAudioHandler(logger *log.Logger, store audioStore) *AudioHandler {
	return &AudioHandler{
		logger: logger,
		store:  store,
	}
}

// Get godoc
// @Summary Download generated audio
// @Description Returns a previously generated narration as MP3.
// @Tags audio
// @Produce audio/mpeg
// @Param filename path string true "Audio file name, e.g. analysis_<uuid>.mp3"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /audio/{filename} [get]
func (h *AudioHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	f, err := h.store.Open(name)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidName):
		writeError(w, http.StatusNotFound, audioNotFound)
		return
	case err != nil:
		h.logger.Printf("open audio %q: %v\n", name, err)
		writeError(w, http.StatusInternalServerError, "failed to open audio file")
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		h.logger.Printf("stat audio %q: %v\n", name, err)
		writeError(w, http.StatusInternalServerError, "failed to open audio file")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeContent(w, r, name, st.ModTime(), f)
}
