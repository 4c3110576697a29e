// Package discovery implements the LAN probe/reply protocol clients use to
// find the chat server before connecting: the client broadcasts a fixed
// probe over UDP and the server answers unicast with its TCP port.
package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPort is the UDP port the responder listens on.
	DefaultPort = 7701

	probePayload = "SCAN BY COOL CHAT SERVER"
	replyPrefix  = "YES PORT:"
)

var ErrServerNotFound = errors.New("no chat server answered the probe")

// Responder answers discovery probes with the server's TCP port. Any other
// datagram is ignored.
type Responder struct {
	conn    *net.UDPConn
	tcpPort int
	logger  *slog.Logger
}

func NewResponder(udpPort, tcpPort int, logger *slog.Logger) (*Responder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: udpPort})
	if err != nil {
		return nil, fmt.Errorf("listen udp :%d: %w", udpPort, err)
	}
	return &Responder{conn: conn, tcpPort: tcpPort, logger: logger}, nil
}

// Addr returns the bound UDP address.
func (r *Responder) Addr() *net.UDPAddr {
	return r.conn.LocalAddr().(*net.UDPAddr)
}

// Run serves probes until Close. Run it in its own goroutine.
func (r *Responder) Run() {
	buf := make([]byte, 256)
	reply := []byte(replyPrefix + strconv.Itoa(r.tcpPort))
	for {
		n, addr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			// Socket closed during shutdown.
			return
		}
		if string(buf[:n]) != probePayload {
			continue
		}
		if _, err := r.conn.WriteToUDP(reply, addr); err != nil {
			r.logger.Warn("discovery reply failed", "peer", addr.String(), "error", err)
			continue
		}
		r.logger.Info("answered discovery probe", "peer", addr.String())
	}
}

func (r *Responder) Close() {
	_ = r.conn.Close()
}

// Discover broadcasts the probe on the LAN and returns the host:port of the
// first server that answers.
func Discover(udpPort, attempts int, timeout time.Duration) (string, error) {
	return probe(&net.UDPAddr{IP: net.IPv4bcast, Port: udpPort}, attempts, timeout)
}

// probe sends the payload to target and waits for a reply. Split out so
// tests can target a loopback responder instead of the broadcast address.
func probe(target *net.UDPAddr, attempts int, timeout time.Duration) (string, error) {
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return "", fmt.Errorf("open udp socket: %w", err)
	}
	defer conn.Close()

	buf := make([]byte, 256)
	for i := 0; i < attempts; i++ {
		if _, err := conn.WriteToUDP([]byte(probePayload), target); err != nil {
			return "", fmt.Errorf("send probe: %w", err)
		}

		_ = conn.SetReadDeadline(time.Now().Add(timeout))
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}

		reply := string(buf[:n])
		if !strings.HasPrefix(reply, replyPrefix) {
			continue
		}
		port, err := strconv.Atoi(strings.TrimPrefix(reply, replyPrefix))
		if err != nil || port <= 0 || port > 65535 {
			continue
		}
		return net.JoinHostPort(addr.IP.String(), strconv.Itoa(port)), nil
	}
	return "", ErrServerNotFound
}
