// Package geocode resolves cluster centroids to human-readable street
// suggestions. Resolution is best-effort: failures degrade to an empty
// suggestion, never to a scan error.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jobsitesnap/rescue-engine/internal/config"
	"github.com/jobsitesnap/rescue-engine/internal/geo"
)

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Suggestion is a reverse-geocoded name for a location. Empty Name means
// the resolver had nothing useful.
type Suggestion struct {
	Name       string `json:"name"`
	Confidence string `json:"confidence,omitempty"`
}

// Resolver turns a centroid into a naming suggestion.
type Resolver interface {
	Reverse(ctx context.Context, p geo.Point) Suggestion
}

// Client is an HTTP Resolver with an in-process response cache keyed by
// a precision-7 cell, so nearby centroids share lookups.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *gocache.Cache
	logger  zerolog.Logger
}

// NewClient builds a resolver from config. An empty URL yields a
// resolver that always returns the empty suggestion.
func NewClient(cfg config.GeocodeConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		cache:   gocache.New(6*time.Hour, 30*time.Minute),
		logger:  logger.With().Str("component", "geocode").Logger(),
	}
}

type reverseResponse struct {
	Street     string `json:"street"`
	Locality   string `json:"locality"`
	Confidence string `json:"confidence"`
}

// Reverse resolves a point to a street-level name. Any failure is logged
// at debug level and swallowed.
func (c *Client) Reverse(ctx context.Context, p geo.Point) Suggestion {
	if c.baseURL == "" {
		return Suggestion{}
	}

	key := geo.EncodeGeohash(p.Lat, p.Lng, geo.DefaultGeohashPrecision)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(Suggestion)
	}

	suggestion, err := c.lookup(ctx, p)
	if err != nil {
		c.logger.Debug().Err(err).
			Float64("lat", p.Lat).
			Float64("lng", p.Lng).
			Msg("reverse geocode failed")
		return Suggestion{}
	}

	c.cache.SetDefault(key, suggestion)
	return suggestion
}

func (c *Client) lookup(ctx context.Context, p geo.Point) (Suggestion, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.6f", p.Lat))
	query.Set("lng", fmt.Sprintf("%.6f", p.Lng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return Suggestion{}, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Suggestion{}, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Suggestion{}, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Suggestion{}, fmt.Errorf("could not read response body: %w", err)
	}

	var result reverseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Suggestion{}, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return fromResponse(result), nil
}

// fromResponse maps provider fields onto a suggestion. A street-level
// match is medium confidence, locality-only is low; exact matches do not
// exist for photo centroids, so "high" is never produced here.
func fromResponse(r reverseResponse) Suggestion {
	switch {
	case r.Street != "":
		return Suggestion{Name: r.Street, Confidence: ConfidenceMedium}
	case r.Locality != "":
		return Suggestion{Name: r.Locality, Confidence: ConfidenceLow}
	default:
		return Suggestion{}
	}
}

// Static is a fixed-table Resolver for tests and offline scans.
type Static struct {
	Suggestions map[string]Suggestion // keyed by precision-7 cell
}

func (s *Static) Reverse(ctx context.Context, p geo.Point) Suggestion {
	return s.Suggestions[geo.EncodeGeohash(p.Lat, p.Lng, geo.DefaultGeohashPrecision)]
}

// Noop always returns the empty suggestion.
type Noop struct{}

func (Noop) Reverse(ctx context.Context, p geo.Point) Suggestion { return Suggestion{} }
