package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/speechmark/internal/config"
	"github.com/JaimeStill/speechmark/internal/infrastructure"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()

	var out bytes.Buffer
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	path := writeConfig(t, "version = \"0.3.0\"\n")

	out, err := execute(t, "", "version", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "speechmark "+version)
	assert.Contains(t, out, "api version 0.3.0")
}

func TestTagCommandJSON(t *testing.T) {
	path := writeConfig(t, "")

	out, err := execute(t, "The cat", "tag", "-c", path, "-f", "json")
	require.NoError(t, err)

	var result struct {
		Data []uint32 `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []uint32{0, 0, 3, 15, 256, 0, 4, 3, 1, 0}, result.Data)
}

func TestTagCommandTableFromFile(t *testing.T) {
	path := writeConfig(t, "")
	input := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(input, []byte("The cat"), 0o644))

	out, err := execute(t, "", "tag", "-c", path, input)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "LABEL")
	assert.Contains(t, lines[2], "cat")
}

func TestTagCommandUnknownFormat(t *testing.T) {
	path := writeConfig(t, "")

	_, err := execute(t, "The cat", "tag", "-c", path, "-f", "xml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestServerRoutes(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, ""))
	require.NoError(t, err)

	infra, err := infrastructure.NewWithLogger(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	srv, err := newServer(cfg, infra)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.http.http.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown(5 * time.Second)
	})

	get := func(path string) (int, string) {
		res, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer res.Body.Close()
		body, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		return res.StatusCode, string(body)
	}

	status, _ := get("/healthz")
	assert.Equal(t, http.StatusOK, status)

	status, _ = get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	require.NoError(t, srv.Start())
	assert.Eventually(t, func() bool {
		status, _ := get("/readyz")
		return status == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	status, body := get("/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "speechmark_lsp_sessions")

	status, body = get("/api/openapi.json")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "/api/documents")

	status, body = get("/scalar")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "/api/openapi.json")
}
