// Package places wraps the Google Places API (New) text search used to
// discover local-business candidates.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/model"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// The v1 API caps a single text-search page at 20 places.
const maxPageSize = 20

// Query describes a candidate search: a "lat,lng" center, a radius, a
// keyword, and an optional place type.
type Query struct {
	Location     string
	RadiusMeters int
	Keyword      string
	Type         string
	MaxResults   int
}

// Client performs place searches.
type Client interface {
	Search(ctx context.Context, q Query) ([]model.PlaceRecord, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithSimulation switches the client into deterministic offline mode for
// its whole lifetime; no network calls are made.
func WithSimulation() Option {
	return func(c *httpClient) {
		c.simulation = true
	}
}

type httpClient struct {
	apiKey     string
	baseURL    string
	http       *http.Client
	simulation bool
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type textSearchRequest struct {
	TextQuery    string        `json:"textQuery"`
	IncludedType string        `json:"includedType,omitempty"`
	PageSize     int           `json:"pageSize,omitempty"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
}

type textSearchResponse struct {
	Places []place `json:"places"`
}

type place struct {
	DisplayName      displayName `json:"displayName"`
	FormattedAddress string      `json:"formattedAddress"`
	WebsiteURI       string      `json:"websiteUri"`
	Types            []string    `json:"types"`
	Rating           float64     `json:"rating"`
}

type displayName struct {
	Text string `json:"text"`
}

// Search runs a text search biased to the query circle and returns up to
// MaxResults candidates. A rejected query is an error; an empty result
// set is not.
func (c *httpClient) Search(ctx context.Context, q Query) ([]model.PlaceRecord, error) {
	if c.simulation {
		zap.L().Info("places: simulation mode, returning canned results", zap.String("keyword", q.Keyword))
		return simulatedResults(q.Keyword), nil
	}

	if c.apiKey == "" {
		return nil, eris.New("places: missing API key")
	}

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = maxPageSize
	}

	reqBody := textSearchRequest{
		TextQuery:    q.Keyword,
		IncludedType: q.Type,
		PageSize:     min(maxResults, maxPageSize),
	}
	if bias, err := parseLocation(q.Location); err == nil {
		reqBody.LocationBias = &locationBias{Circle: circle{
			Center: bias,
			Radius: float64(q.RadiusMeters),
		}}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "places.displayName,places.formattedAddress,places.websiteUri,places.types,places.rating")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result textSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}

	records := make([]model.PlaceRecord, 0, len(result.Places))
	for _, p := range result.Places {
		if len(records) == maxResults {
			break
		}
		records = append(records, model.PlaceRecord{
			Name:    p.DisplayName.Text,
			Address: p.FormattedAddress,
			Website: p.WebsiteURI,
			Types:   p.Types,
			Rating:  p.Rating,
		})
	}
	return records, nil
}

func parseLocation(location string) (latLng, error) {
	parts := strings.SplitN(location, ",", 2)
	if len(parts) != 2 {
		return latLng{}, eris.Errorf("places: bad location %q", location)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return latLng{}, eris.Wrap(err, "places: parse latitude")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return latLng{}, eris.Wrap(err, "places: parse longitude")
	}
	return latLng{Latitude: lat, Longitude: lng}, nil
}

// simulatedResults mirrors a small Paris neighborhood: one business with
// no site, one with an aging declared site, one modern.
func simulatedResults(keyword string) []model.PlaceRecord {
	title := capitalize(keyword)
	return []model.PlaceRecord{
		{
			Name:    "Le Panier " + title,
			Address: "12 Rue de la Paix, 75002 Paris",
			Types:   []string{keyword, "bakery"},
			Rating:  4.5,
		},
		{
			Name:    "Vieille Boutique " + title,
			Address: "45 Avenue des Champs-Elysées, 75008 Paris",
			Website: "http://vieille-boutique-1998.com",
			Types:   []string{keyword, "store"},
			Rating:  3.2,
		},
		{
			Name:    "Modern " + title + " Startup",
			Address: "Station F, 75013 Paris",
			Website: "https://modern-startup.io",
			Types:   []string{keyword, "tech"},
			Rating:  4.9,
		},
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
