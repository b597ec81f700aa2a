package lcu

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// DefaultBaseURL is the live client data API exposed by a running game
	DefaultBaseURL = "https://127.0.0.1:2999"

	defaultTimeout = 2 * time.Second
	maxBodySize    = 4 << 20
)

// Resource names one of the live client data endpoints
type Resource string

const (
	ResourcePlayerList Resource = "playerlist"
	ResourceEventData  Resource = "eventdata"
	ResourceGameStats  Resource = "gamestats"
)

// Resources lists every resource polled each cycle
var Resources = []Resource{ResourcePlayerList, ResourceEventData, ResourceGameStats}

// Path returns the endpoint path for the resource
func (r Resource) Path() string {
	return "/liveclientdata/" + string(r)
}

// FetchError is returned for any failed fetch: transport error, timeout,
// non-2xx status or an undecodable body.
type FetchError struct {
	Resource   Resource
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Resource, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// LiveClient handles communication with the live client API (localhost:2999)
type LiveClient struct {
	httpClient *http.Client
	baseURL    string
	snapshots  *SnapshotWriter
}

// Option configures a LiveClient
type Option func(*LiveClient)

// WithBaseURL points the client at a different endpoint (useful for testing)
func WithBaseURL(url string) Option {
	return func(c *LiveClient) {
		c.baseURL = url
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *LiveClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithSnapshots persists every successful response through w
func WithSnapshots(w *SnapshotWriter) Option {
	return func(c *LiveClient) {
		c.snapshots = w
	}
}

// NewLiveClient creates a new live client. The game serves a self-signed
// certificate, so verification is disabled on this client's transport only.
func NewLiveClient(opts ...Option) *LiveClient {
	c := &LiveClient{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		baseURL: DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Fetch returns the raw JSON body of a resource
func (c *LiveClient) Fetch(ctx context.Context, res Resource) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+res.Path(), nil)
	if err != nil {
		return nil, &FetchError{Resource: res, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Resource: res, Err: fmt.Errorf("live client not available: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Resource: res, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Resource: res, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	if c.snapshots != nil {
		c.snapshots.Save(res, body)
	}

	return body, nil
}

// GetAllPlayers fetches all players from the live game
func (c *LiveClient) GetAllPlayers(ctx context.Context) ([]Player, error) {
	body, err := c.Fetch(ctx, ResourcePlayerList)
	if err != nil {
		return nil, err
	}
	return DecodePlayers(body)
}

// GetEvents fetches the full event log of the live game
func (c *LiveClient) GetEvents(ctx context.Context) ([]Event, error) {
	body, err := c.Fetch(ctx, ResourceEventData)
	if err != nil {
		return nil, err
	}
	return DecodeEvents(body)
}

// GetGameStats fetches aggregate game stats (elapsed time, mode, map)
func (c *LiveClient) GetGameStats(ctx context.Context) (GameStats, error) {
	body, err := c.Fetch(ctx, ResourceGameStats)
	if err != nil {
		return GameStats{}, err
	}
	return DecodeGameStats(body)
}

// DecodePlayers parses a playerlist body
func DecodePlayers(body []byte) ([]Player, error) {
	var players []Player
	if err := json.Unmarshal(body, &players); err != nil {
		return nil, &FetchError{Resource: ResourcePlayerList, Err: fmt.Errorf("failed to parse players: %w", err)}
	}
	return players, nil
}

// DecodeEvents parses an eventdata body
func DecodeEvents(body []byte) ([]Event, error) {
	var log EventLog
	if err := json.Unmarshal(body, &log); err != nil {
		return nil, &FetchError{Resource: ResourceEventData, Err: fmt.Errorf("failed to parse events: %w", err)}
	}
	return log.Events, nil
}

// DecodeGameStats parses a gamestats body
func DecodeGameStats(body []byte) (GameStats, error) {
	var stats GameStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return GameStats{}, &FetchError{Resource: ResourceGameStats, Err: fmt.Errorf("failed to parse game stats: %w", err)}
	}
	return stats, nil
}
