// Package session stores the server sessions opened by "login" so later
// commands can join them without asking for a password again.
package session

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables consulted by Resolve.
const (
	EnvServer = "OMERO_RENDER_SERVER"
	EnvKey    = "OMERO_RENDER_KEY"
)

// Store is the content of sessions.toml.
type Store struct {
	Active   string           `toml:"active"` // Active server URL
	Sessions map[string]Entry `toml:"sessions"`
}

// Entry represents a saved session in [sessions.*], keyed by server URL.
type Entry struct {
	URL      string    `toml:"url"`
	User     string    `toml:"user"`
	Group    string    `toml:"group,omitempty"`
	Key      string    `toml:"key"`
	Insecure bool      `toml:"insecure,omitempty"`
	Created  time.Time `toml:"created"`
}

// Target is the server and session a command connects with.
type Target struct {
	URL      string
	User     string
	Group    string
	Key      string
	Insecure bool
}

// DefaultPath returns the default sessions file path.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.Getenv("HOME")
	}
	return filepath.Join(configDir, "omero-render", "sessions.toml")
}

// NormalizeURL turns "host", "host:port" or a full URL into a
// scheme://host[:port] form suitable as a session key.
func NormalizeURL(server string, port int) (string, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return "", fmt.Errorf("empty server address")
	}
	if !strings.Contains(server, "://") {
		server = "https://" + server
	}
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server address %q: %w", server, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server address %q", server)
	}
	if port > 0 && u.Port() == "" {
		u.Host = fmt.Sprintf("%s:%d", u.Hostname(), port)
	}
	return u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/"), nil
}

// Load reads the sessions file. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Store{Sessions: make(map[string]Entry)}, nil
		}
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	var store Store
	if err := toml.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("failed to parse sessions: %w", err)
	}

	if store.Sessions == nil {
		store.Sessions = make(map[string]Entry)
	}

	return &store, nil
}

// Save writes the sessions file, readable by the owner only.
func Save(path string, store *Store) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(store)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write sessions: %w", err)
	}

	return nil
}

// Put saves e under its URL and makes it the active session.
func (s *Store) Put(e Entry) {
	s.Sessions[e.URL] = e
	s.Active = e.URL
}

// Remove forgets the session of serverURL. It reports whether one existed.
func (s *Store) Remove(serverURL string) bool {
	if _, ok := s.Sessions[serverURL]; !ok {
		return false
	}
	delete(s.Sessions, serverURL)

	// Clear active if it was the removed session
	if s.Active == serverURL {
		s.Active = ""
	}
	return true
}

// SetActive switches the active session.
func (s *Store) SetActive(serverURL string) error {
	if _, ok := s.Sessions[serverURL]; !ok {
		return fmt.Errorf("no session for '%s'", serverURL)
	}
	s.Active = serverURL
	return nil
}

// ActiveEntry returns the active session, if any.
func (s *Store) ActiveEntry() (Entry, bool) {
	if s.Active == "" {
		return Entry{}, false
	}
	e, ok := s.Sessions[s.Active]
	return e, ok
}

// List returns the saved sessions sorted by URL.
func (s *Store) List() []Entry {
	out := make([]Entry, 0, len(s.Sessions))
	for _, e := range s.Sessions {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

// Resolve picks the server and session key to connect with.
// Precedence: flag > env > config > active session. explicit carries the
// merged flag and config values; env is read from EnvServer and EnvKey.
// A saved session is reused when it belongs to the resolved server and the
// user, if given, matches.
func (s *Store) Resolve(explicit Target, configured Target) Target {
	t := Target{
		URL:      firstNonEmpty(explicit.URL, os.Getenv(EnvServer), configured.URL),
		User:     firstNonEmpty(explicit.User, configured.User),
		Group:    firstNonEmpty(explicit.Group, configured.Group),
		Key:      firstNonEmpty(explicit.Key, os.Getenv(EnvKey)),
		Insecure: explicit.Insecure || configured.Insecure,
	}

	if t.URL != "" {
		if u, err := NormalizeURL(t.URL, 0); err == nil {
			t.URL = u
		}
	}

	var saved Entry
	var ok bool
	if t.URL == "" {
		saved, ok = s.ActiveEntry()
	} else {
		saved, ok = s.Sessions[t.URL]
	}
	if !ok || (t.User != "" && saved.User != t.User) {
		return t
	}

	t.URL = saved.URL
	t.User = firstNonEmpty(t.User, saved.User)
	t.Group = firstNonEmpty(t.Group, saved.Group)
	t.Key = firstNonEmpty(t.Key, saved.Key)
	t.Insecure = t.Insecure || saved.Insecure
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
