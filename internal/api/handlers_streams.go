package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/micro-nova/acodec-go/internal/models"
)

func (h *Handlers) openStream(w http.ResponseWriter, r *http.Request) {
	st, appErr := h.ctrl.OpenStream(r.Context(), chi.URLParam(r, "dir"))
	respond(w, st, appErr)
}

func (h *Handlers) closeStream(w http.ResponseWriter, r *http.Request) {
	st, appErr := h.ctrl.CloseStream(r.Context(), chi.URLParam(r, "dir"))
	respond(w, st, appErr)
}

func (h *Handlers) muteStream(w http.ResponseWriter, r *http.Request) {
	var req models.MuteRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	st, appErr := h.ctrl.Mute(r.Context(), chi.URLParam(r, "dir"), req.Mute)
	respond(w, st, appErr)
}
