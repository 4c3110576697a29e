package chat

import (
	"strings"
	"time"
)

type MessageKind int

const (
	KindBroadcast MessageKind = iota
	KindPrivate
)

// Message is one inbound chat line after parsing. Messages are values and are
// never mutated after construction; the router stamps the timestamp when it
// picks the message up.
type Message struct {
	Sender    string
	Kind      MessageKind
	Recipient string // private messages only
	Body      string
	Timestamp time.Time
}

const privateCommand = "/private"

var ErrMalformedPrivate = errorString("malformed_private")

// ParseLine classifies one line from sender. A line starting with "/private"
// is split on single spaces: first token after the command is the recipient,
// the rest rejoined is the body. Anything else is a broadcast.
func ParseLine(sender, line string) (Message, error) {
	if strings.HasPrefix(line, privateCommand) {
		parts := strings.Split(line, " ")
		if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
			return Message{}, ErrMalformedPrivate
		}
		return Message{
			Sender:    sender,
			Kind:      KindPrivate,
			Recipient: parts[1],
			Body:      strings.Join(parts[2:], " "),
		}, nil
	}
	return Message{
		Sender: sender,
		Kind:   KindBroadcast,
		Body:   line,
	}, nil
}

// Rendered returns the exact line recipients see.
func (m Message) Rendered() string {
	if m.Kind == KindPrivate {
		return "[Private from " + m.Sender + "]: " + m.Body
	}
	return "[" + m.Sender + "]: " + m.Body
}
