package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/neuroterm/assets"
	"github.com/robalobadob/neuroterm/internal/game"
	"github.com/robalobadob/neuroterm/internal/history"
	"github.com/robalobadob/neuroterm/internal/riddle"
	"github.com/robalobadob/neuroterm/internal/session"
	"github.com/robalobadob/neuroterm/internal/store"
)

type testEnv struct {
	srv   *httptest.Server
	c     *http.Client
	store store.Store

	mu        sync.Mutex
	terminals []*session.Terminal
}

func newTestEnv(t *testing.T, provider riddle.Provider, hist *history.Store) *testEnv {
	t.Helper()
	env := &testEnv{store: store.NewMemoryStore()}
	s := New(env.store, hist, Config{
		SessionSecret: "test-secret",
		NewTerminal: func(id string) *session.Terminal {
			opts := session.Options{Provider: provider, Picker: func(int) int { return 49 }}
			if hist != nil {
				opts.Recorder = hist
			}
			term := session.New(id, opts)
			env.mu.Lock()
			env.terminals = append(env.terminals, term)
			env.mu.Unlock()
			return term
		},
	})
	env.srv = httptest.NewServer(s.Router())
	t.Cleanup(env.srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	env.c = &http.Client{Jar: jar, Timeout: 5 * time.Second}
	return env
}

func (e *testEnv) waitAll() {
	e.mu.Lock()
	terms := append([]*session.Terminal(nil), e.terminals...)
	e.mu.Unlock()
	for _, t := range terms {
		t.Wait()
	}
}

func (e *testEnv) snapshot(t *testing.T) session.View {
	t.Helper()
	res, err := e.c.Get(e.srv.URL + "/api/terminal")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var v session.View
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func (e *testEnv) submit(t *testing.T, line string) (int, session.View, map[string]string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"line": line})
	res, err := e.c.Post(e.srv.URL+"/api/terminal/submit", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	var v session.View
	var errBody map[string]string
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	} else {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&errBody))
	}
	return res.StatusCode, v, errBody
}

func lastText(v session.View) string { return v.Lines[len(v.Lines)-1].Text }

func TestHealthAndIndex(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	res, err := env.c.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = env.c.Get(env.srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.HasPrefix(res.Header.Get("Content-Type"), "text/html"))
}

func TestSnapshotBootsTerminalAndKeepsSession(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	v1 := env.snapshot(t)
	require.NotEmpty(t, v1.ID)
	assert.Equal(t, session.BootLines[0], v1.Lines[0].Text)
	assert.Equal(t, game.ModeIdle, v1.Mode)

	v2 := env.snapshot(t)
	assert.Equal(t, v1.ID, v2.ID, "cookie must resolve to the same terminal")
}

func TestForgedCookieGetsFreshTerminal(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	v1 := env.snapshot(t)

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/terminal", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "not-a-jwt"})
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var v2 session.View
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v2))
	assert.NotEqual(t, v1.ID, v2.ID)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	s := New(store.NewMemoryStore(), nil, Config{SessionSecret: "k1"})
	tok, exp, err := s.signSessionToken("abc")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	id, err := s.parseSessionToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	other := New(store.NewMemoryStore(), nil, Config{SessionSecret: "k2"})
	_, err = other.parseSessionToken(tok)
	require.Error(t, err)
}

func TestSubmitNumberGame(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	code, v, _ := env.submit(t, "number")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, game.ModeNumberGuess, v.Mode)
	assert.Equal(t, "? ", v.Prompt)
	assert.Equal(t, "ACTIVE_PROCESS", v.Status)

	_, v, _ = env.submit(t, "10")
	assert.Equal(t, "Too low! (Attempt 1)", lastText(v))
	assert.Equal(t, 1, v.Attempts)

	_, v, _ = env.submit(t, "50")
	assert.Equal(t, game.ModeIdle, v.Mode)
	assert.Equal(t, "Returning to shell...", lastText(v))
}

func TestSubmitBadJSON(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	res, err := env.c.Post(env.srv.URL+"/api/terminal/submit", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

type blockingProvider struct{ release chan struct{} }

func (p blockingProvider) Generate(ctx context.Context) (game.Riddle, error) {
	select {
	case <-p.release:
		return riddle.Echo, nil
	case <-ctx.Done():
		return game.Riddle{}, ctx.Err()
	}
}

func TestSubmitWhileBusyIsConflict(t *testing.T) {
	p := blockingProvider{release: make(chan struct{})}
	env := newTestEnv(t, p, nil)

	code, v, _ := env.submit(t, "riddle")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, v.Busy)

	code, _, body := env.submit(t, "help")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "busy", body["error"])

	close(p.release)
	env.waitAll()

	v = env.snapshot(t)
	assert.False(t, v.Busy)
	assert.Equal(t, game.ModeRiddleGuess, v.Mode)

	_, v, _ = env.submit(t, "an echo!")
	assert.Equal(t, "Solved in 1 attempts.", lastText(v))
}

func TestHistoryEndpoint(t *testing.T) {
	db, err := history.Open(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, history.Migrate(db, assets.Migrations()))
	hist := history.NewStore(db)

	env := newTestEnv(t, riddle.Static(riddle.Echo), hist)
	env.submit(t, "number")
	env.submit(t, "50")
	env.submit(t, "riddle")
	env.waitAll()
	env.submit(t, "giveup")
	env.waitAll()

	res, err := env.c.Get(env.srv.URL + "/api/history")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body historyRes
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Recent, 2)
	assert.ElementsMatch(t, []history.ModeSummary{
		{Mode: game.ModeNumberGuess, Played: 1, Wins: 1},
		{Mode: game.ModeRiddleGuess, Played: 1, Wins: 0},
	}, body.Summary)
}

func TestHistoryWithoutStore(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	res, err := env.c.Get(env.srv.URL + "/api/history")
	require.NoError(t, err)
	defer res.Body.Close()

	var body historyRes
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Empty(t, body.Recent)
	assert.Empty(t, body.Summary)
}

func TestNotFoundIsJSON(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	res, err := env.c.Get(env.srv.URL + "/nope")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "not_found", body["error"])
}
