package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/denysvitali/mtpfm/pkg/config"
	"github.com/denysvitali/mtpfm/pkg/server"
)

func setupTestServer(t *testing.T) *server.Server {
	return setupTestServerWith(t, config.ServerConfig{
		Port:           8080,
		SessionAPIKey:  "test-key",
		AllowedOrigins: []string{"http://localhost:3000"},
	})
}

func setupTestServerWith(t *testing.T, serverCfg config.ServerConfig) *server.Server {
	cfg := &config.Config{
		Server: serverCfg,
		MTP: config.MTPConfig{
			Bin: filepath.Join(t.TempDir(), "no-such-mtp-cli"),
		},
		Files: config.FilesConfig{
			Device:       "local",
			IgnoreHidden: true,
		},
		Telemetry: config.TelemetryConfig{
			Enabled: false,
		},
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv, err := server.New(cfg, logger)
	require.NoError(t, err, "Failed to create server")
	return srv
}

func createAuthenticatedRequest(method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Session-API-Key", "test-key")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// envelope mirrors models.Response with data left raw
type envelope struct {
	Error  *string         `json:"error"`
	Stderr *string         `json:"stderr"`
	Data   json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, srv *server.Server, method, url string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req, err := createAuthenticatedRequest(method, url, body)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func TestHandleAlive_Success(t *testing.T) {
	srv := setupTestServer(t)

	req, err := http.NewRequest(http.MethodGet, "/alive", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRequestID_Propagated(t *testing.T) {
	srv := setupTestServer(t)

	req, err := createAuthenticatedRequest(http.MethodGet, "/alive", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")

	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestAuthMiddleware_RejectsMissingKey(t *testing.T) {
	srv := setupTestServer(t)

	req, err := http.NewRequest(http.MethodGet, "/storages?deviceType=local", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCORS_Preflight(t *testing.T) {
	srv := setupTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, "/files/list", nil)
	require.NoError(t, err)
	req.Header.Set("X-Session-API-Key", "test-key")
	req.Header.Set("Origin", "http://localhost:3000")

	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_UnknownOriginNotAllowed(t *testing.T) {
	srv := setupTestServer(t)

	req, err := createAuthenticatedRequest(http.MethodGet, "/alive", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example")

	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestFiles_RejectNonJSONContentType(t *testing.T) {
	// No session key configured, as with the defaults
	srv := setupTestServerWith(t, config.ServerConfig{Port: 8080})
	victim := filepath.Join(t.TempDir(), "victim.txt")
	require.NoError(t, os.WriteFile(victim, []byte("x"), 0644))

	body, err := json.Marshal(models.DeleteFilesRequest{DeviceType: "local", FileList: []string{victim}})
	require.NoError(t, err)

	for _, contentType := range []string{"text/plain", "application/x-www-form-urlencoded", ""} {
		req, err := http.NewRequest(http.MethodPost, "/files/delete", bytes.NewReader(body))
		require.NoError(t, err)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Origin", "https://evil.example")

		rr := httptest.NewRecorder()
		srv.Engine().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code, contentType)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))

		var env envelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
		require.NotNil(t, env.Error)
		assert.Equal(t, "null", string(env.Data))
	}
	assert.FileExists(t, victim)

	req, err := http.NewRequest(http.MethodPost, "/files/delete", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NoFileExists(t, victim)
}

func TestHandleServerInfo_Success(t *testing.T) {
	srv := setupTestServer(t)

	req, err := createAuthenticatedRequest(http.MethodGet, "/server_info", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.ServerInfoResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.Uptime, 0.0)
	assert.GreaterOrEqual(t, resp.IdleTime, 0.0)
	assert.Contains(t, resp.MTPBin, "no-such-mtp-cli")
}

func TestHandleListFiles_Local(t *testing.T) {
	srv := setupTestServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "b"), 0755))

	rr, env := doJSON(t, srv, http.MethodPost, "/files/list", models.ListFilesRequest{
		DeviceType: "local",
		Path:       dir,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, env.Error)

	var entries []models.FileEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 2)

	byName := map[string]models.FileEntry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	require.Contains(t, byName, "a.txt")
	require.Contains(t, byName, "b")
	require.NotNil(t, byName["a.txt"].Extension)
	assert.Equal(t, "txt", *byName["a.txt"].Extension)
	require.NotNil(t, byName["a.txt"].Size)
	assert.Equal(t, int64(5), *byName["a.txt"].Size)
	assert.True(t, byName["b"].IsFolder)
	assert.Nil(t, byName["b"].Extension)
}

func TestHandleListFiles_ShowHidden(t *testing.T) {
	srv := setupTestServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), nil, 0644))

	show := false
	_, env := doJSON(t, srv, http.MethodPost, "/files/list", models.ListFilesRequest{
		DeviceType:   "local",
		Path:         dir,
		IgnoreHidden: &show,
	})

	var entries []models.FileEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, ".hidden", entries[0].Name)
}

func TestHandleListFiles_NotFound(t *testing.T) {
	srv := setupTestServer(t)

	rr, env := doJSON(t, srv, http.MethodPost, "/files/list", models.ListFilesRequest{
		DeviceType: "local",
		Path:       filepath.Join(t.TempDir(), "missing"),
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "null", string(env.Data))
}

func TestHandleListFiles_UnknownDevice(t *testing.T) {
	srv := setupTestServer(t)

	rr, env := doJSON(t, srv, http.MethodPost, "/files/list", models.ListFilesRequest{
		DeviceType: "floppy",
		Path:       "/",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, *env.Error, "unknown device type")
	assert.Equal(t, "null", string(env.Data))
}

func TestHandleListFiles_MalformedBody(t *testing.T) {
	srv := setupTestServer(t)

	req, err := createAuthenticatedRequest(http.MethodPost, "/files/list", bytes.NewBufferString("{not json"))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMutatingRoutes_MalformedBody(t *testing.T) {
	srv := setupTestServer(t)

	for _, url := range []string{"/files/delete", "/files/rename", "/files/folder", "/files/exists"} {
		req, err := createAuthenticatedRequest(http.MethodPost, url, bytes.NewBufferString("{not json"))
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		srv.Engine().ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, url)

		var env envelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
		require.NotNil(t, env.Error, url)
		assert.Equal(t, "null", string(env.Data), url)
	}
}

func TestHandleDeleteFiles(t *testing.T) {
	srv := setupTestServer(t)

	t.Run("nothing selected", func(t *testing.T) {
		rr, env := doJSON(t, srv, http.MethodPost, "/files/delete", models.DeleteFilesRequest{DeviceType: "local"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "No files selected.", *env.Error)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("removes files", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "a.txt")
		require.NoError(t, os.WriteFile(target, nil, 0644))

		rr, env := doJSON(t, srv, http.MethodPost, "/files/delete", models.DeleteFilesRequest{
			DeviceType: "local",
			FileList:   []string{target},
		})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "true", string(env.Data))
		assert.NoFileExists(t, target)
	})

	t.Run("refuses root", func(t *testing.T) {
		rr, env := doJSON(t, srv, http.MethodPost, "/files/delete", models.DeleteFilesRequest{
			DeviceType: "local",
			FileList:   []string{"/"},
		})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		require.NotNil(t, env.Error)
		assert.Contains(t, *env.Error, "refusing to remove")
		assert.Equal(t, "false", string(env.Data))
	})

	t.Run("mtp tool missing", func(t *testing.T) {
		rr, env := doJSON(t, srv, http.MethodPost, "/files/delete", models.DeleteFilesRequest{
			DeviceType: "mtp",
			FileList:   []string{"/DCIM/a.jpg"},
		})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "false", string(env.Data))
	})
}

func TestHandleRenameFile(t *testing.T) {
	srv := setupTestServer(t)
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.txt")
	newPath := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0644))

	rr, env := doJSON(t, srv, http.MethodPost, "/files/rename", models.RenameFileRequest{
		DeviceType:  "local",
		OldFilePath: oldPath,
		NewFilePath: newPath,
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "true", string(env.Data))
	assert.FileExists(t, newPath)

	rr, env = doJSON(t, srv, http.MethodPost, "/files/rename", models.RenameFileRequest{
		DeviceType:  "mtp",
		OldFilePath: "/a",
		NewFilePath: "/b",
	})
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
	assert.Equal(t, "false", string(env.Data))
}

func TestHandleNewFolderThenExists(t *testing.T) {
	srv := setupTestServer(t)
	folder := filepath.Join(t.TempDir(), "x", "y")

	rr, env := doJSON(t, srv, http.MethodPost, "/files/folder", models.NewFolderRequest{
		DeviceType:    "local",
		NewFolderPath: folder,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "true", string(env.Data))

	rr, env = doJSON(t, srv, http.MethodPost, "/files/exists", models.FileExistsRequest{
		DeviceType: "local",
		FilePath:   folder,
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "true", string(env.Data))

	_, env = doJSON(t, srv, http.MethodPost, "/files/exists", models.FileExistsRequest{
		DeviceType: "local",
		FilePath:   folder + "-nope",
	})
	assert.Equal(t, "false", string(env.Data))
}

func TestHandleStorageList_UnknownDevice(t *testing.T) {
	srv := setupTestServer(t)

	rr, env := doJSON(t, srv, http.MethodGet, "/storages", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	require.NotNil(t, env.Error)
}
