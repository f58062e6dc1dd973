package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

// LocalSource provides commit times of repositories tracked outside GitHub,
// keyed by repository name.
type LocalSource interface {
	FetchLocal(ctx context.Context) (map[string][]time.Time, error)
}

// BackendGateway reads local repository contributions from a repo-year
// backend.
type BackendGateway struct {
	client  *http.Client
	baseURL *url.URL
	logger  *log.Logger
}

// contributionsResponse is the body of GET /api/contributions: commit times
// in seconds since the epoch by repository name.
type contributionsResponse struct {
	Repos map[string][]int64 `json:"repos"`
}

// NewBackendGateway creates a gateway for the backend at baseURL. A nil
// client means http.DefaultClient.
func NewBackendGateway(baseURL string, client *http.Client, logger *log.Logger) (*BackendGateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", baseURL, err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &BackendGateway{client: client, baseURL: u, logger: logger}, nil
}

func (b *BackendGateway) FetchLocal(ctx context.Context) (map[string][]time.Time, error) {
	endpoint := b.baseURL.JoinPath("api", "contributions")
	b.logger.Printf("Fetching local contributions from %s...", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch local contributions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch local contributions: unexpected status %d", resp.StatusCode)
	}

	var body contributionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode local contributions: %w", err)
	}

	out := make(map[string][]time.Time, len(body.Repos))
	for name, seconds := range body.Repos {
		times := make([]time.Time, len(seconds))
		for i, s := range seconds {
			times[i] = time.Unix(s, 0)
		}
		out[name] = times
	}
	b.logger.Printf("Completed fetching local contributions for %d repositories.", len(out))
	return out, nil
}
