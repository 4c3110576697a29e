package chat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Authenticator checks a username/password pair against the credential store.
type Authenticator interface {
	Authenticate(username, password string) bool
}

const (
	promptUsername = "Enter your username:"
	promptPassword = "Enter your password:"
	exitCommand    = "exit"
)

// handleSession drives one connection from handshake to teardown. It returns
// when the peer sends "exit", the stream ends, or a read fails; the deferred
// Close covers the write-fault path as well.
func (s *Server) handleSession(sess *Session) {
	defer sess.Close()

	reader := bufio.NewReader(sess.Conn)
	writer := bufio.NewWriter(sess.Conn)

	username, err := s.handshake(sess, reader, writer)
	if err != nil {
		s.logger.Info("handshake rejected", "session", sess.ID, "error", err)
		return
	}
	defer s.registry.Unregister(username)

	s.logger.Info("user joined", "session", sess.ID, "username", username)

	// The handshake wrote directly; from here on the writer goroutine owns
	// the connection's write side.
	StartOutboundWriter(sess)

	if s.replay > 0 && s.history != nil {
		for _, line := range s.history.Tail(s.replay) {
			sendLine(sess, line)
		}
	}

	for {
		line, err := readLine(reader)
		if err != nil {
			s.logger.Info("user disconnected", "session", sess.ID, "username", username)
			return
		}
		if line == "" {
			continue
		}
		if line == exitCommand {
			s.logger.Info("user left", "session", sess.ID, "username", username)
			return
		}

		msg, err := ParseLine(username, line)
		if errors.Is(err, ErrMalformedPrivate) {
			sendLine(sess, "Usage: /private <recipient> <message>")
			continue
		}
		if err := s.router.Dispatch(msg); err != nil {
			// Recipient-not-found was already reported to the sender by
			// the router.
			s.logger.Debug("dispatch failed", "username", username, "error", err)
		}
	}
}

// handshake reads the username and password lines, authenticates, and
// registers the session. A single failed attempt disconnects the peer.
// Rejection lines are written synchronously so they reach the peer before
// the connection closes.
func (s *Server) handshake(sess *Session, reader *bufio.Reader, writer *bufio.Writer) (string, error) {
	if err := writeLine(writer, promptUsername); err != nil {
		return "", err
	}
	username, err := readLine(reader)
	if err != nil {
		return "", fmt.Errorf("read username: %w", err)
	}
	username = strings.TrimSpace(username)

	if err := writeLine(writer, promptPassword); err != nil {
		return "", err
	}
	password, err := readLine(reader)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if !s.auth.Authenticate(username, password) {
		_ = writeLine(writer, "Authentication failed.")
		return "", ErrAuthFailed
	}

	if err := s.registry.Register(username, sess); err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			_ = writeLine(writer, "Username '"+username+"' is already taken.")
		default:
			_ = writeLine(writer, "Invalid username.")
		}
		return "", err
	}

	if err := writeLine(writer, "Welcome, "+username+"!"); err != nil {
		s.registry.Unregister(username)
		return "", err
	}
	return username, nil
}

func writeLine(w *bufio.Writer, line string) error {
	if _, err := w.WriteString(line + "\n"); err != nil {
		return err
	}
	return w.Flush()
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == nil {
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF && line != "" {
		// last line without newline
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	return "", fmt.Errorf("read: %w", err)
}
