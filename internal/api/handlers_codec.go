package api

import (
	"net/http"

	"github.com/micro-nova/acodec-go/internal/models"
)

func (h *Handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

func (h *Handlers) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Settings())
}

func (h *Handlers) updateSettings(w http.ResponseWriter, r *http.Request) {
	var upd models.SettingsUpdate
	if appErr := decodeBody(r, &upd); appErr != nil {
		writeError(w, appErr)
		return
	}
	st, appErr := h.ctrl.UpdateSettings(r.Context(), upd)
	respond(w, st, appErr)
}

func (h *Handlers) getOutput(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.OutputRequest{Output: h.ctrl.Output()})
}

func (h *Handlers) setOutput(w http.ResponseWriter, r *http.Request) {
	var req models.OutputRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	st, appErr := h.ctrl.SetOutput(r.Context(), req.Output)
	respond(w, st, appErr)
}

func (h *Handlers) setMicBias(w http.ResponseWriter, r *http.Request) {
	var req models.MicBiasRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	if req.Level == nil {
		writeError(w, models.ErrInvalidField("level", "level is required"))
		return
	}
	st, appErr := h.ctrl.SetMicBias(r.Context(), *req.Level)
	respond(w, st, appErr)
}

func (h *Handlers) setALC(w http.ResponseWriter, r *http.Request) {
	var req models.ALCRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	st, appErr := h.ctrl.SetALC(r.Context(), req.Enable)
	respond(w, st, appErr)
}

func (h *Handlers) recoverCodec(w http.ResponseWriter, r *http.Request) {
	st, appErr := h.ctrl.Recover(r.Context())
	respond(w, st, appErr)
}

func (h *Handlers) jackIRQ(w http.ResponseWriter, r *http.Request) {
	if appErr := h.ctrl.InjectInterrupt(); appErr != nil {
		writeError(w, appErr)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
