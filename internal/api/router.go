package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(ctrl Controller, bus EventBus) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{ctrl: ctrl, events: bus}

	r.Route("/api", func(r chi.Router) {
		// Codec state and settings
		r.Get("/codec", h.getStatus)
		r.Patch("/codec", h.updateSettings)
		r.Get("/codec/settings", h.getSettings)
		r.Get("/codec/output", h.getOutput)
		r.Put("/codec/output", h.setOutput)
		r.Put("/codec/micbias", h.setMicBias)
		r.Post("/codec/alc", h.setALC)
		r.Post("/codec/recover", h.recoverCodec)

		// Stream lifecycle from the audio interface
		r.Post("/streams/{dir}/open", h.openStream)
		r.Post("/streams/{dir}/close", h.closeStream)
		r.Post("/streams/{dir}/mute", h.muteStream)

		// Jack detect
		r.Post("/jack/irq", h.jackIRQ)

		// SSE
		r.Get("/subscribe", h.sseEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
