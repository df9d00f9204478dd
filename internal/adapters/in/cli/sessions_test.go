package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ome/omero-render/internal/adapters/in/cli/session"
)

// fakeOmeroWeb serves the login, join and logout endpoints of OMERO.web.
type fakeOmeroWeb struct {
	*httptest.Server

	mu        sync.Mutex
	expired   bool
	passwords []string
	joins     []string
	logouts   int
}

func newFakeOmeroWeb(t *testing.T) *fakeOmeroWeb {
	t.Helper()
	f := &fakeOmeroWeb{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(w, map[string]any{"data": []map[string]any{{"version": "0", "url:base": f.URL + "/api/v0/"}}})
	})
	mux.HandleFunc("GET /api/v0/token/", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(w, map[string]any{"data": "csrf"})
	})
	mux.HandleFunc("POST /api/v0/login/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.passwords = append(f.passwords, r.FormValue("password"))
		f.mu.Unlock()
		writeTestJSON(w, map[string]any{
			"success": true,
			"eventContext": map[string]any{
				"sessionUuid": "key-" + r.FormValue("username"),
				"userId":      2,
				"userName":    r.FormValue("username"),
				"groupId":     3,
				"groupName":   "lab",
			},
		})
	})
	mux.HandleFunc("GET /webclient/{$}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.joins = append(f.joins, r.URL.Query().Get("bsession"))
		expired := f.expired
		f.mu.Unlock()
		if expired {
			http.Redirect(w, r, "/webclient/login/", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /webclient/login/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("login page"))
	})
	mux.HandleFunc("POST /webclient/logout/", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		f.logouts++
		f.mu.Unlock()
		_, _ = w.Write([]byte("ok"))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginCmd_SavesSession(t *testing.T) {
	sessions := isolate(t)
	web := newFakeOmeroWeb(t)
	a, _ := newTestApp(&fakeRenderService{})

	stdout, _, err := execute(t, a, "login", "--sessions-file", sessions,
		"--server", web.URL, "--user", "alice", "--password", "secret")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Logged in to "+web.URL)
	assert.Contains(t, stdout, "session key: key-alice")
	assert.Equal(t, []string{"secret"}, web.passwords)

	store, err := session.Load(sessions)
	require.NoError(t, err)
	assert.Equal(t, web.URL, store.Active)
	entry := store.Sessions[web.URL]
	assert.Equal(t, "alice", entry.User)
	assert.Equal(t, "key-alice", entry.Key)
	assert.True(t, testNow.Equal(entry.Created))
}

func TestLoginCmd_PromptsForMissingCredentials(t *testing.T) {
	sessions := isolate(t)
	web := newFakeOmeroWeb(t)
	a, _ := newTestApp(&fakeRenderService{})
	prompt := &fakePrompter{user: "bob", password: "hunter2"}
	a.prompt = prompt

	_, _, err := execute(t, a, "login", "--sessions-file", sessions, "--server", web.URL)
	require.NoError(t, err)

	assert.Equal(t, 2, prompt.asked)
	assert.Equal(t, []string{"hunter2"}, web.passwords)
}

func TestLoginCmd_PasswordFromEnvironment(t *testing.T) {
	sessions := isolate(t)
	t.Setenv(EnvPassword, "from-env")
	web := newFakeOmeroWeb(t)
	a, _ := newTestApp(&fakeRenderService{})

	_, _, err := execute(t, a, "login", "--sessions-file", sessions, "--server", web.URL, "-u", "carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"from-env"}, web.passwords)
}

func TestLoginCmd_NoServer(t *testing.T) {
	sessions := isolate(t)
	a, _ := newTestApp(&fakeRenderService{})

	_, _, err := execute(t, a, "login", "--sessions-file", sessions)
	assert.ErrorContains(t, err, "no server configured")
}

func TestOpen_JoinsSavedSession(t *testing.T) {
	sessions := isolate(t)
	web := newFakeOmeroWeb(t)

	store := &session.Store{Sessions: map[string]session.Entry{}}
	store.Put(session.Entry{URL: web.URL, User: "alice", Key: "saved-key"})
	require.NoError(t, session.Save(sessions, store))

	a, _ := newTestApp(&fakeRenderService{})
	_, _, err := execute(t, a, "sessions", "--sessions-file", sessions)
	require.NoError(t, err)

	client, sess, err := a.open(t.Context(), false)
	require.NoError(t, err)
	defer client.Close(t.Context())

	assert.Equal(t, "saved-key", sess.Key)
	assert.Equal(t, "alice", sess.UserName)
	assert.Equal(t, []string{"saved-key"}, web.joins)
	assert.Empty(t, web.passwords)
}

func TestOpen_ExpiredSessionLogsInAgain(t *testing.T) {
	sessions := isolate(t)
	web := newFakeOmeroWeb(t)
	web.expired = true

	store := &session.Store{Sessions: map[string]session.Entry{}}
	store.Put(session.Entry{URL: web.URL, User: "alice", Key: "old-key"})
	require.NoError(t, session.Save(sessions, store))

	a, _ := newTestApp(&fakeRenderService{})
	_, stderr, err := execute(t, a, "login", "--sessions-file", sessions, "--key", "old-key", "--password", "pw")
	require.NoError(t, err)

	assert.Contains(t, stderr, "Session expired")
	assert.Equal(t, []string{"pw"}, web.passwords)

	saved, err := session.Load(sessions)
	require.NoError(t, err)
	assert.Equal(t, "key-alice", saved.Sessions[web.URL].Key)
}

func TestLogoutCmd(t *testing.T) {
	sessions := isolate(t)
	web := newFakeOmeroWeb(t)

	store := &session.Store{Sessions: map[string]session.Entry{}}
	store.Put(session.Entry{URL: web.URL, User: "alice", Key: "k"})
	require.NoError(t, session.Save(sessions, store))

	a, _ := newTestApp(&fakeRenderService{})
	stdout, _, err := execute(t, a, "logout", "--sessions-file", sessions)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Logged out of "+web.URL)
	assert.Equal(t, 1, web.logouts)

	saved, err := session.Load(sessions)
	require.NoError(t, err)
	assert.Empty(t, saved.Sessions)
	assert.Empty(t, saved.Active)
}

func TestLogoutCmd_NoSession(t *testing.T) {
	sessions := isolate(t)
	a, _ := newTestApp(&fakeRenderService{})

	stdout, _, err := execute(t, a, "logout", "--sessions-file", sessions, "--server", "omero.example.org")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No session for https://omero.example.org")
}

func TestRunSessionsList(t *testing.T) {
	store := &session.Store{Sessions: map[string]session.Entry{}}
	store.Put(session.Entry{URL: "https://b.example.org", User: "bob", Group: "lab", Created: testNow.Add(-2 * time.Hour)})
	store.Put(session.Entry{URL: "https://a.example.org", User: "alice"})

	var out bytes.Buffer
	require.NoError(t, runSessionsList(&out, store, testNow))

	text := out.String()
	assert.Contains(t, text, "SERVER")
	assert.Contains(t, text, "https://a.example.org")
	assert.Contains(t, text, "2 hours ago")
	assert.Contains(t, text, "active")
	assert.Contains(t, text, "Total sessions: 2")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("a.example.org")), bytes.Index(out.Bytes(), []byte("b.example.org")))
}

func TestRunSessionsList_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runSessionsList(&out, &session.Store{Sessions: map[string]session.Entry{}}, testNow))
	assert.Contains(t, out.String(), "No saved sessions")
}

func TestSessionsUseCmd(t *testing.T) {
	sessions := isolate(t)
	store := &session.Store{Sessions: map[string]session.Entry{}}
	store.Put(session.Entry{URL: "https://a.example.org", Key: "1"})
	store.Put(session.Entry{URL: "https://b.example.org", Key: "2"})
	require.NoError(t, session.Save(sessions, store))

	a, _ := newTestApp(&fakeRenderService{})
	stdout, _, err := execute(t, a, "sessions", "use", "a.example.org", "--sessions-file", sessions)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Active session: https://a.example.org")

	saved, err := session.Load(sessions)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.org", saved.Active)

	_, _, err = execute(t, a, "sessions", "use", "c.example.org", "--sessions-file", sessions)
	assert.Error(t, err)
}
