package chat

import (
	"fmt"
	"log/slog"
	"net"
)

// HistoryLog is the durable history as the server uses it: the router
// appends, login replay reads the tail.
type HistoryLog interface {
	HistoryAppender
	Tail(n int) []string
}

// Server accepts TCP connections, runs each session's handshake and receive
// loop in its own goroutine, and owns the router's lifecycle.
type Server struct {
	addr    string
	logger  *slog.Logger
	auth    Authenticator
	history HistoryLog
	replay  int

	registry *Registry
	router   *Router
	listener net.Listener
}

func NewServer(addr string, auth Authenticator, history HistoryLog, replay int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	registry := NewRegistry()
	return &Server{
		addr:     addr,
		logger:   logger,
		auth:     auth,
		history:  history,
		replay:   replay,
		registry: registry,
		router:   NewRouter(registry, history, 128, logger),
	}
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln

	go s.router.Run()
	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Registry exposes the session directory for status reporting.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Stop stops admitting new connections, lets in-flight dispatches complete,
// and closes every live session.
func (s *Server) Stop() {
	s.logger.Info("shutting down")

	if s.listener != nil {
		s.listener.Close()
	}

	s.router.Stop()
	s.router.Wait()

	for _, sess := range s.registry.Snapshot() {
		sess.Close()
	}

	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Listener closed during shutdown.
			return
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())
		go s.handleSession(NewSession(conn, 32))
	}
}
