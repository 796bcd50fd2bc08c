package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(baseURL, apiKey string) *AssetService {
	return &AssetService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  http.DefaultClient,
	}
}

func TestUpload_SendsObjectToStore(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example.com/posts/abc.jpg"})
	}))
	defer server.Close()

	svc := newTestService(server.URL, "secret-key")
	url, err := svc.Upload(context.Background(), []byte("image-bytes"), "image/jpeg", "posts")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/posts/abc.jpg", url)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/objects/posts/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ".jpg"), gotPath)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "image/jpeg", gotContentType)
	assert.Equal(t, []byte("image-bytes"), gotBody)
}

func TestUpload_ExtensionFollowsContentType(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example.com/x"})
	}))
	defer server.Close()

	svc := newTestService(server.URL, "")
	_, err := svc.Upload(context.Background(), []byte("data"), "image/png", "profiles")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(gotPath, ".png"), gotPath)
}

func TestUpload_StoreError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	svc := newTestService(server.URL, "secret-key")
	_, err := svc.Upload(context.Background(), []byte("data"), "image/jpeg", "posts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestUpload_MissingURLInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "stored"})
	}))
	defer server.Close()

	svc := newTestService(server.URL, "")
	_, err := svc.Upload(context.Background(), []byte("data"), "image/jpeg", "posts")
	assert.Error(t, err)
}

// TestUpload_LocalFallback verifies disk storage is used when no store is
// configured.
func TestUpload_LocalFallback(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	svc := newTestService("", "")
	url, err := svc.Upload(context.Background(), []byte("image-bytes"), "image/jpeg", "posts")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/posts/"), url)
	assert.True(t, strings.HasSuffix(url, ".jpg"), url)
}
