package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/jarvis/internal/desktop"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.App.LogFormat = "text"
	cfg.Paths.Desktop = filepath.Join(dir, "Desktop")
	cfg.Paths.Trash = filepath.Join(dir, "trash")
	cfg.Paths.Logs = filepath.Join(dir, "logs")
	cfg.SQLite.Path = filepath.Join(dir, "jarvis.db")
	cfg.Input.Backend = desktop.InputNone
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, cfg *Config) *App {
	t.Helper()
	app, err := New(WithConfig(cfg), WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}

func TestNew_RestoreDefaultsToDesktop(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp(t, cfg)
	assert.Equal(t, cfg.Paths.Desktop, app.Config.Paths.Restore)
	assert.DirExists(t, app.FS.TrashDir())
}

func TestHandler_Health(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestHandler_ExecuteJournalsAndLists(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp(t, cfg)
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	target := filepath.ToSlash(filepath.Join(cfg.Paths.Desktop, "Informe"))
	resp, err := http.Post(srv.URL+"/execute", "application/json",
		strings.NewReader(`{"action":"crear_carpeta","params":{"ruta":"`+target+`"}}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Reply   string `json:"reply"`
		Success bool   `json:"success"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success, out.Reply)
	assert.DirExists(t, filepath.FromSlash(target))

	matches, err := filepath.Glob(filepath.Join(cfg.Paths.Logs, "actions_*.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestHandler_AuthToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "s3cret"}
	app := newTestApp(t, cfg)
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/actions")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health stays public")
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.HTTP.Port = freePort(t)
	app := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

func freePort(t *testing.T) int {
	t.Helper()
	l := httptest.NewServer(http.NotFoundHandler())
	defer l.Close()
	_, port, ok := strings.Cut(strings.TrimPrefix(l.URL, "http://"), ":")
	require.True(t, ok)
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	return n
}
