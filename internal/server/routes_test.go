package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/db"
	"github.com/inkpress/inkpress/internal/server/auth"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		HTTP: HTTPConfig{
			Addr:          "127.0.0.1:0",
			AuthRateLimit: "1000-S",
			APIRateLimit:  "1000-S",
		},
		Content: ContentConfig{
			Root:          filepath.Join(dir, "content"),
			DBPath:        filepath.Join(dir, "state.db"),
			DefaultAuthor: "owner",
		},
		Auth: auth.Config{Enabled: false},
	}
}

func newTestRouter(t *testing.T, config *Config) (http.Handler, *Services) {
	t.Helper()
	require.NoError(t, config.Validate())

	database, err := db.NewSqliteDB(db.WithPath(config.Content.DBPath))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	svc, err := NewServices(config, database)
	require.NoError(t, err)
	require.NoError(t, svc.Start(t.Context()))

	return SetupRoutes(config, svc), svc
}

func doJSON(t *testing.T, router http.Handler, method, url string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func commitMultipart(t *testing.T, router http.Handler, meta map[string]any, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	metaJSON, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("meta", string(metaJSON)))

	for path, content := range files {
		part, err := mw.CreateFormFile(path, filepath.Base(path))
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/commit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoutes_Health(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	w := doJSON(t, router, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = doJSON(t, router, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_SyncRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	// empty workspace against an empty server: nothing to do
	w := doJSON(t, router, http.MethodPost, "/api/v1/sync/status", map[string]any{
		"manifest":          map[string]any{},
		"last_known_commit": "",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var status struct {
		ServerCommit string   `json:"server_commit"`
		ToUpload     []string `json:"to_upload"`
		ToDownload   []string `json:"to_download"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.NotEmpty(t, status.ServerCommit)
	assert.Empty(t, status.ToDownload)

	// push one new post
	w = commitMultipart(t, router,
		map[string]any{"last_known_commit": "", "message": "first post"},
		map[string]string{"posts/hello.md": "# Hello World\n\nfirst words\n"},
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var commit struct {
		CommitHash string   `json:"commit_hash"`
		ToDownload []string `json:"to_download"`
		Conflicts  []any    `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &commit))
	assert.NotEmpty(t, commit.CommitHash)
	assert.Empty(t, commit.Conflicts)
	// normalization rewrote the upload, so the client must pull it back
	assert.Contains(t, commit.ToDownload, "posts/hello.md")

	// fetch the committed bytes
	w = doJSON(t, router, http.MethodGet, "/api/v1/content/download?path=posts/hello.md", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "title: Hello World")
	assert.Contains(t, body, "first words")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// same bytes, no body
	req := httptest.NewRequest(http.MethodGet, "/api/v1/content/download?path=posts/hello.md", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)

	// the publish pipeline runs async after commit
	require.Eventually(t, func() bool {
		w := doJSON(t, router, http.MethodGet, "/api/v1/site/posts", nil, "")
		return w.Code == http.StatusOK && bytes.Contains(w.Body.Bytes(), []byte("posts/hello.md"))
	}, 3*time.Second, 50*time.Millisecond)

	w = doJSON(t, router, http.MethodGet, "/api/v1/site/posts/posts/hello.md", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello World")
	assert.Contains(t, w.Body.String(), "first words")
}

func TestRoutes_CommitDeletionOnlyPlainForm(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	w := commitMultipart(t, router,
		map[string]any{"last_known_commit": ""},
		map[string]string{"posts/short-lived.md": "# Short Lived\n\ngone soon\n"},
	)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var first struct {
		CommitHash string `json:"commit_hash"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	// a round with no uploads has no file parts, so the client sends a
	// plain url-encoded form instead of multipart
	metaJSON, err := json.Marshal(map[string]any{
		"last_known_commit": first.CommitHash,
		"deleted_files":     []string{"posts/short-lived.md"},
	})
	require.NoError(t, err)

	form := url.Values{"meta": {string(metaJSON)}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/commit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var second struct {
		CommitHash string `json:"commit_hash"`
		Conflicts  []any  `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.NotEqual(t, first.CommitHash, second.CommitHash)
	assert.Empty(t, second.Conflicts)

	w = doJSON(t, router, http.MethodGet, "/api/v1/content/download?path=posts/short-lived.md", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_CommitRejectsBadPaths(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	w := commitMultipart(t, router,
		map[string]any{"last_known_commit": "", "deleted_files": []string{"../escape.md"}},
		nil,
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "E_INVALID_PATH")

	w = doJSON(t, router, http.MethodGet, "/api/v1/content/download?path=../../etc/passwd", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutes_DownloadMissing(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	w := doJSON(t, router, http.MethodGet, "/api/v1/content/download?path=posts/none.md", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "E_CONTENT_NOT_FOUND")
}

func TestRoutes_AuthGate(t *testing.T) {
	config := testConfig(t)
	config.Auth = auth.Config{
		Enabled:            true,
		TokenIssuer:        "inkpress-test",
		SiteKey:            "correct-horse-battery-staple",
		AccessTokenSecret:  "access-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenExpiry: 24 * time.Hour,
	}
	router, _ := newTestRouter(t, config)

	// no token
	w := doJSON(t, router, http.MethodPost, "/api/v1/sync/status", map[string]any{
		"manifest": map[string]any{},
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// wrong site key
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/token", map[string]any{
		"email":    "jo@example.com",
		"site_key": "not-the-site-key-at-all",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "E_AUTH_INVALID_CREDENTIALS")

	// correct site key
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/token", map[string]any{
		"email":    "jo@example.com",
		"site_key": "correct-horse-battery-staple",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	// gated route now opens
	w = doJSON(t, router, http.MethodPost, "/api/v1/sync/status", map[string]any{
		"manifest":          map[string]any{},
		"last_known_commit": "",
	}, tokens.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	// rotate the pair
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": tokens.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var rotated struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEmpty(t, rotated.AccessToken)

	// the published site stays public
	w = doJSON(t, router, http.MethodGet, "/api/v1/site/posts", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// garbage bearer token
	w = doJSON(t, router, http.MethodPost, "/api/v1/sync/status", map[string]any{
		"manifest": map[string]any{},
	}, "this.is.garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_StatusRejectsBadManifest(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	w := doJSON(t, router, http.MethodPost, "/api/v1/sync/status", map[string]any{
		"manifest": map[string]any{
			"../escape.md": map[string]any{"path": "../escape.md", "content_hash": "00", "size": 1},
		},
		"last_known_commit": "",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "E_INVALID_MANIFEST")
}

func TestConfig_Validate(t *testing.T) {
	config := testConfig(t)
	require.NoError(t, config.Validate())

	config = testConfig(t)
	config.HTTP.AuthRateLimit = ""
	config.HTTP.APIRateLimit = ""
	require.NoError(t, config.Validate())
	assert.Equal(t, "10-M", config.HTTP.AuthRateLimit)
	assert.Equal(t, "600-M", config.HTTP.APIRateLimit)

	bad := testConfig(t)
	bad.Content.Root = ""
	assert.Error(t, bad.Validate())

	bad = testConfig(t)
	bad.Content.DefaultAuthor = ""
	assert.Error(t, bad.Validate())
}
