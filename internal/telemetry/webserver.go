package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rjboer/GoRCS/internal/logging"
)

// WebServer exposes computed curves, history and live updates over HTTP.
type WebServer struct {
	srv *http.Server
	hub *Hub
}

// NewWebServer builds an HTTP server for the hub's endpoints.
func NewWebServer(addr string, hub *Hub) *WebServer {
	return &WebServer{
		hub: hub,
		srv: &http.Server{Addr: addr, Handler: newMux(hub), ReadHeaderTimeout: 5 * time.Second},
	}
}

func newMux(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history", hub.handleHistory)
	mux.HandleFunc("/api/curve", hub.handleCurve)
	mux.HandleFunc("/api/live", hub.handleLive)
	mux.HandleFunc("/api/config", hub.handleGetConfig)
	mux.HandleFunc("/api/config/update", hub.handleSetConfig)
	mux.HandleFunc("/plot.svg", hub.handlePlot)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		hub.handlePlot(w, r)
	})
	return mux
}

// Handler returns the server's request router.
func (w *WebServer) Handler() http.Handler { return w.srv.Handler }

// Start listens until ctx is cancelled, then shuts the server down.
func (w *WebServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := w.srv.Shutdown(shutdownCtx); err != nil {
			w.hub.logger.Warn("web shutdown", logging.Field{Key: "error", Value: err})
		}
	}()

	if err := w.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
