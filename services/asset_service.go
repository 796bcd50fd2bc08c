package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/HSouheill/snapgram_backend/utils"
)

// AssetService uploads binary assets to the external object store and
// returns durable URLs. When no store is configured it falls back to
// local disk under /uploads so development works without credentials.
type AssetService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAssetService creates a new asset store client from environment
// configuration
func NewAssetService() *AssetService {
	baseURL := os.Getenv("ASSET_STORE_URL")
	apiKey := os.Getenv("ASSET_STORE_API_KEY")

	if baseURL == "" {
		log.Printf("WARNING: ASSET_STORE_URL is not set")
		log.Printf("Uploaded images will be stored on local disk under /uploads")
	} else {
		log.Printf("Asset store configured at %s", baseURL)
		if apiKey == "" {
			log.Printf("WARNING: ASSET_STORE_API_KEY is missing")
		}
	}

	return &AssetService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// uploadResult is the object store's response body
type uploadResult struct {
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// Upload sends raw bytes to the object store and returns the durable URL.
// The folder groups assets by purpose ("posts", "profiles").
func (s *AssetService) Upload(ctx context.Context, data []byte, contentType, folder string) (string, error) {
	name := uuid.New().String() + extensionFor(contentType)

	if s.baseURL == "" {
		return utils.UploadFileToPath(data, name, folder)
	}

	url := fmt.Sprintf("%s/objects/%s/%s", s.baseURL, folder, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("asset upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("asset store returned status %d: %s", resp.StatusCode, string(body))
	}

	var result uploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("asset store response missing url")
	}

	return result.URL, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
