package httpapi

import (
	"net/http"

	"duckwatch/internal/metrics"
)

// NewMux registers the platform routes: /healthz, /metrics and /static/.
// Feature routes are added by the caller.
func NewMux(db Pinger, staticDir string, recorder *metrics.Recorder) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	mux.Handle("GET /metrics", recorder.Handler())
	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	return mux
}
