package chat

import (
	"log/slog"
	"time"
)

// HistoryAppender is the durable sink for delivered messages.
type HistoryAppender interface {
	Append(at time.Time, username, rendered string) error
}

type dispatchRequest struct {
	msg   Message
	reply chan error
}

// Router owns message delivery. Every dispatch funnels through a single run
// loop, so the history append and the snapshot fan-out for one message never
// interleave with another's, and history order matches the order recipients
// can have observed deliveries.
type Router struct {
	registry *Registry
	history  HistoryAppender
	logger   *slog.Logger

	inbox  chan dispatchRequest
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewRouter(registry *Registry, history HistoryAppender, buffer int, logger *slog.Logger) *Router {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry: registry,
		history:  history,
		logger:   logger,
		inbox:    make(chan dispatchRequest, buffer),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Stop signals the run loop to exit once accepted dispatches are processed.
func (rt *Router) Stop() {
	close(rt.stopCh)
}

// Wait blocks until the run loop has completely finished.
func (rt *Router) Wait() {
	<-rt.doneCh
}

// Dispatch routes msg and blocks until the run loop has appended history and
// fanned the message out. Returns ErrRecipientNotFound for a private message
// to an unknown user; the error line has already been sent to the sender.
func (rt *Router) Dispatch(msg Message) error {
	req := dispatchRequest{msg: msg, reply: make(chan error, 1)}
	select {
	case rt.inbox <- req:
	case <-rt.stopCh:
		return ErrServerStopped
	}
	select {
	case err := <-req.reply:
		return err
	case <-rt.doneCh:
		return ErrServerStopped
	}
}

func (rt *Router) Run() {
	defer close(rt.doneCh)
	for {
		select {
		case req := <-rt.inbox:
			rt.process(req)
		case <-rt.stopCh:
			// Drain dispatches that were accepted before the stop.
			for {
				select {
				case req := <-rt.inbox:
					rt.process(req)
				default:
					return
				}
			}
		}
	}
}

func (rt *Router) process(req dispatchRequest) {
	start := time.Now()
	msg := req.msg
	if msg.Timestamp.IsZero() {
		msg.Timestamp = start
	}

	kind := "broadcast"
	var err error
	if msg.Kind == KindPrivate {
		kind = "private"
		err = rt.private(msg)
	} else {
		rt.broadcast(msg)
	}
	req.reply <- err

	MessagesTotal.WithLabelValues(kind).Inc()
	DispatchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (rt *Router) broadcast(msg Message) {
	line := msg.Rendered()
	rt.appendHistory(msg.Timestamp, msg.Sender, line)
	// The sender is part of the snapshot and receives its own echo.
	for _, s := range rt.registry.Snapshot() {
		rt.deliver(s, line)
	}
}

func (rt *Router) private(msg Message) error {
	recipient, ok := rt.registry.Lookup(msg.Recipient)
	if !ok {
		if sender, ok := rt.registry.Lookup(msg.Sender); ok {
			rt.deliver(sender, "User '"+msg.Recipient+"' not found.")
		}
		return ErrRecipientNotFound
	}

	line := msg.Rendered()
	rt.appendHistory(msg.Timestamp, msg.Sender, line)
	rt.deliver(recipient, line)
	if sender, ok := rt.registry.Lookup(msg.Sender); ok && sender != recipient {
		rt.deliver(sender, line)
	}
	return nil
}

func (rt *Router) appendHistory(at time.Time, username, rendered string) {
	if rt.history == nil {
		return
	}
	if err := rt.history.Append(at, username, rendered); err != nil {
		// Durability loss is degraded mode; live traffic continues.
		rt.logger.Error("history append failed", "error", err)
	}
}

// deliver enqueues line onto one session without blocking. A slow or dead
// recipient drops the line instead of stalling the rest of the fan-out; its
// own writer goroutine handles the actual connection fault.
func (rt *Router) deliver(s *Session, line string) {
	select {
	case s.Out <- line:
	default:
		DroppedDeliveries.Inc()
		rt.logger.Warn("dropped delivery", "session", s.ID, "username", s.Username)
	}
}
