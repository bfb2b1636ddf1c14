package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spooker/internal/config"
	"spooker/internal/files"
	"spooker/internal/services"
	ws "spooker/internal/websocket"
)

const intervalCSV = `Dátum/Idő;+A;-A
2024.01.01. 00:00;1,5;0,1
2024.01.01. 01:00;2;0,1
ÖSSZEG;;
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	cfg    *config.Config
	server *httptest.Server
	hub    *ws.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.InputDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.WebDir = ""
	cfg.Processing.Backups = false
	cfg.Server.RateLimit.Enabled = false

	logger := testLogger()
	hub := ws.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	service := services.NewProcessService(cfg, logger)
	manager := files.NewManager(cfg.Paths.InputDir, cfg.Paths.OutputDir, logger)
	handler := NewHandler(cfg, service, manager, hub, logger)

	srv := httptest.NewServer(NewRouter(handler, hub, cfg, logger))
	t.Cleanup(srv.Close)

	return &fixture{cfg: cfg, server: srv, hub: hub}
}

func (f *fixture) writeInput(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.Paths.InputDir, name), []byte(content), 0o644))
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestUploadAndListFiles(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(intervalCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.server.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(f.server.URL + "/api/files")
	require.NoError(t, err)
	defer resp.Body.Close()

	var listing struct {
		Inputs []files.FileInfo `json:"inputs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.Inputs, 1)
	assert.Equal(t, "export.csv", listing.Inputs[0].Name)
}

func TestUploadRejectsWrongType(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "evil.exe")
	require.NoError(t, err)
	fw.Write([]byte("MZ"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.server.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestProcessEndpoint(t *testing.T) {
	f := newFixture(t)
	f.writeInput(t, "interval.csv", intervalCSV)

	resp, err := http.Post(f.server.URL+"/api/process", "application/json",
		strings.NewReader(`{"files":["interval.csv"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary services.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Len(t, summary.Files, 1)
	assert.Greater(t, summary.ImportPoints, 0)

	_, err = os.Stat(filepath.Join(f.cfg.Paths.OutputDir, "energy_statistics_import.yaml"))
	assert.NoError(t, err)
}

func TestProcessAllInputsWhenNoneNamed(t *testing.T) {
	f := newFixture(t)
	f.writeInput(t, "interval.csv", intervalCSV)

	resp, err := http.Post(f.server.URL+"/api/process", "application/json",
		strings.NewReader(`{"dry_run":true}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProcessEmptyFolder(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.server.URL+"/api/process", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessRejectsTraversalNames(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.server.URL+"/api/process", "application/json",
		strings.NewReader(`{"files":["../../etc/passwd"]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProcessUnknownFormatOverride(t *testing.T) {
	f := newFixture(t)
	f.writeInput(t, "interval.csv", intervalCSV)

	resp, err := http.Post(f.server.URL+"/api/process", "application/json",
		strings.NewReader(`{"files":["interval.csv"],"format":"bogus"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	// The forced format fails every file, surfacing as a processing error.
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDeleteFile(t *testing.T) {
	f := newFixture(t)
	f.writeInput(t, "export.csv", "x")

	req, err := http.NewRequest(http.MethodDelete, f.server.URL+"/api/files/export.csv", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = os.Stat(filepath.Join(f.cfg.Paths.InputDir, "export.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownload(t *testing.T) {
	f := newFixture(t)
	content := "# header\n- start: x\n"
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.Paths.OutputDir, "energy_import.yaml"), []byte(content), 0o644))

	resp, err := http.Get(f.server.URL + "/api/download/energy_import.yaml")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, string(body))

	resp, err = http.Get(f.server.URL + "/api/download/missing.yaml")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
