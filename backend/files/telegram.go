// Package files resolves opaque file identifiers to downloadable URLs via
// the bot API that the platform uses as ad-hoc file storage.
package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"eduplatform/backend/cache"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrUnavailable = errors.New("file storage unavailable")
)

type Resolver struct {
	client  *http.Client
	apiBase string
	token   string
	cache   cache.Cache
}

func NewResolver(apiBase, token string, c cache.Cache) *Resolver {
	return &Resolver{
		client:  &http.Client{Timeout: 10 * time.Second},
		apiBase: apiBase,
		token:   token,
		cache:   c,
	}
}

type getFileResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path"`
	} `json:"result"`
}

// ResolveURL turns a file id into a time-limited download URL. Results are
// cached; the cache TTL must stay below the storage provider's own URL
// validity window.
func (r *Resolver) ResolveURL(ctx context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", ErrNotFound
	}
	if cached, ok := r.cache.Get(fileID); ok {
		return cached, nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", r.apiBase, r.token, url.QueryEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", ErrUnavailable
	}

	var payload getFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", ErrUnavailable
	}
	if !payload.OK || payload.Result.FilePath == "" {
		return "", ErrNotFound
	}

	downloadURL := fmt.Sprintf("%s/file/bot%s/%s", r.apiBase, r.token, payload.Result.FilePath)
	r.cache.Set(fileID, downloadURL)
	return downloadURL, nil
}
