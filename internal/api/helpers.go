// Package api implements the HTTP REST API of the codec daemon.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/micro-nova/acodec-go/internal/events"
	"github.com/micro-nova/acodec-go/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl   Controller
	events EventBus
}

// Controller is the interface the handlers use to drive the codec.
type Controller interface {
	Status() models.Status
	Settings() models.Settings
	UpdateSettings(ctx context.Context, upd models.SettingsUpdate) (models.Status, *models.AppError)
	Output() string
	SetOutput(ctx context.Context, name string) (models.Status, *models.AppError)
	SetMicBias(ctx context.Context, level int) (models.Status, *models.AppError)
	SetALC(ctx context.Context, enable bool) (models.Status, *models.AppError)
	Recover(ctx context.Context) (models.Status, *models.AppError)
	OpenStream(ctx context.Context, dir string) (models.Status, *models.AppError)
	CloseStream(ctx context.Context, dir string) (models.Status, *models.AppError)
	Mute(ctx context.Context, dir string, mute bool) (models.Status, *models.AppError)
	InjectInterrupt() *models.AppError
}

// EventBus is the interface for subscribing to state change events.
type EventBus interface {
	Subscribe(id string) <-chan events.Event
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) *models.AppError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}

// respond writes the result of a controller call.
func respond(w http.ResponseWriter, st models.Status, appErr *models.AppError) {
	if appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
