package chat

import (
	"net"
	"sync"

	"github.com/google/uuid"
)

// Session is the server-side state for one authenticated client connection.
// The outbound channel is drained by a single writer goroutine; nothing else
// writes to the connection after the handshake.
type Session struct {
	ID       string
	Conn     net.Conn
	Username string
	Out      chan string // outbound lines to be written by the writer goroutine

	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(conn net.Conn, buffer int) *Session {
	if buffer <= 0 {
		buffer = 32
	}
	return &Session{
		ID:   uuid.NewString() + "/" + conn.RemoteAddr().String(),
		Conn: conn,
		Out:  make(chan string, buffer),
		done: make(chan struct{}),
	}
}

// Close tears the session down: the writer goroutine stops and the connection
// closes, which fails any blocked read. Safe to call from any goroutine, any
// number of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.Conn.Close()
	})
}

var (
	ErrUsernameTaken     = errorString("username_taken")
	ErrUsernameInvalid   = errorString("username_invalid")
	ErrRecipientNotFound = errorString("recipient_not_found")
	ErrAuthFailed        = errorString("authentication_failed")
	ErrServerStopped     = errorString("server_stopped")
)

type errorString string

func (e errorString) Error() string { return string(e) }
