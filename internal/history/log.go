// Package history keeps the durable, append-only record of delivered
// messages. The file format is one line per message,
// "<timestamp> - [<username>]: <rendered text>", and the whole file is
// loaded at open so recent lines can be replayed to joining clients.
package history

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// Log is an append-only flat-file message history. Appends are serialized;
// concurrent callers never interleave partial lines.
type Log struct {
	path string

	mu    sync.Mutex
	f     *os.File
	lines []string
}

// Open loads any existing history at path and opens it for appending. A
// missing file is created empty.
func Open(path string) (*Log, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}

	return &Log{path: path, f: f, lines: lines}, nil
}

// Append records one delivered message. The entry is flushed to disk before
// returning, so a delivered message is never observed before its history
// entry is durable.
func (l *Log) Append(at time.Time, username, rendered string) error {
	line := at.Format(timeLayout) + " - [" + username + "]: " + rendered

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return fmt.Errorf("history %s: closed", l.path)
	}
	if _, err := l.f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append history %s: %w", l.path, err)
	}
	l.lines = append(l.lines, line)
	return nil
}

// Tail copies the last n lines in chronological order.
func (l *Log) Tail(n int) []string {
	if n <= 0 {
		return []string{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if n > len(l.lines) {
		n = len(l.lines)
	}
	tail := make([]string, n)
	copy(tail, l.lines[len(l.lines)-n:])
	return tail
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
