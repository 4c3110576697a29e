// Package web serves the demo status page and the prometheus metrics
// endpoint over plain HTTP, next to the chat listener.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is a point-in-time view of the chat server for the status page.
type Status struct {
	ConnectedClients int
	HistoryLines     int
}

type StatusFunc func() Status

type Server struct {
	httpSrv *http.Server
	logger  *slog.Logger
}

func NewServer(addr string, status StatusFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		httpSrv: &http.Server{
			Addr:         addr,
			Handler:      newMux(status),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func newMux(status StatusFunc) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		st := Status{}
		if status != nil {
			st = status()
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "CoolChat server\nconnected clients: %d\nhistory lines: %d\n",
			st.ConnectedClients, st.HistoryLines)
	})
	return mux
}

// Start serves in the background until Stop.
func (s *Server) Start() {
	go func() {
		s.logger.Info("web server started", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("web server failed", "error", err)
		}
	}()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Warn("web server shutdown", "error", err)
	}
}
