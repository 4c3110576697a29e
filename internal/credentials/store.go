// Package credentials loads and persists the username,password file. The
// format is one "username,password" pair per line, plaintext; it predates
// this server and existing files must keep working.
package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUserExists  = errors.New("user already exists")
	ErrBadUsername = errors.New("username must be non-empty and contain no comma")
)

// Store holds the known username/password pairs. Lookups and mutations are
// safe for concurrent use; Save rewrites the whole file.
type Store struct {
	path string

	mu    sync.RWMutex
	users map[string]string
}

// Open loads the credential file at path. A missing file yields an empty
// store; malformed lines are skipped.
func Open(path string) (*Store, error) {
	s := &Store{path: path, users: make(map[string]string)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open credentials %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), ",")
		if len(parts) != 2 {
			continue
		}
		s.users[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", path, err)
	}
	return s, nil
}

// Authenticate reports whether the pair matches a stored record. Usernames
// are case-sensitive.
func (s *Store) Authenticate(username, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.users[username]
	return ok && stored == password
}

// Add records a new user. The change is in-memory until Save.
func (s *Store) Add(username, password string) error {
	if username == "" || strings.Contains(username, ",") {
		return ErrBadUsername
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[username]; exists {
		return ErrUserExists
	}
	s.users[username] = password
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Save rewrites the credential file with the current records, sorted by
// username for stable diffs.
func (s *Store) Save() error {
	s.mu.RLock()
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteString(",")
		b.WriteString(s.users[name])
		b.WriteString("\n")
	}
	s.mu.RUnlock()

	if err := os.WriteFile(s.path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("save credentials %s: %w", s.path, err)
	}
	return nil
}
