package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/platform/obs"
	"ev-trip-planner/internal/ports"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MinQueryLength is the shortest trimmed query sent to the provider.
const MinQueryLength = 3

// NominatimSearcher implements LocationSearcher using the Nominatim /search endpoint.
// Results may be served from an optional persistent cache.
type NominatimSearcher struct {
	session   *http.Client
	baseURL   string
	userAgent string
	limit     int
	cache     ports.LocationCache
}

func NewNominatimSearcher(baseURL, userAgent string, cache ports.LocationCache) (*NominatimSearcher, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("nominatim base url is empty")
	}
	if strings.TrimSpace(userAgent) == "" {
		return nil, errors.New("nominatim requires a user agent")
	}

	return &NominatimSearcher{
		session:   &http.Client{Timeout: 10 * time.Second},
		baseURL:   baseURL,
		userAgent: userAgent,
		limit:     5,
		cache:     cache,
	}, nil
}

type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// normalize collapses whitespace so cache keys are stable.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Search resolves free text into up to five candidate locations.
// Queries shorter than MinQueryLength return an empty list without a request.
func (n *NominatimSearcher) Search(ctx context.Context, query string) (_ []ports.Location, err error) {
	defer obs.Time(ctx, "nominatim.Search")(&err)

	q := normalize(query)
	if len([]rune(q)) < MinQueryLength {
		return []ports.Location{}, nil
	}
	key := strings.ToLower(q)

	if n.cache != nil {
		hit, ok, err := n.cache.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "location cache read failed", "query", key, "err", err)
		} else if ok {
			return hit, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search", nil)
	if err != nil {
		return nil, fmt.Errorf("search locations: create request: %w", err)
	}
	params := req.URL.Query()
	params.Set("format", "json")
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(n.limit))
	req.URL.RawQuery = params.Encode()
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search locations %q: %w", q, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search locations %q: status %d: %s", q, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search locations %q: decode response: %w", q, err)
	}

	out := make([]ports.Location, 0, len(decoded))
	for _, r := range decoded {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		out = append(out, ports.Location{
			DisplayName: r.DisplayName,
			Coordinate:  domain.Coordinate{Lat: lat, Lon: lon},
		})
	}

	if n.cache != nil && len(out) > 0 {
		if err := n.cache.Put(ctx, key, out); err != nil {
			slog.WarnContext(ctx, "location cache write failed", "query", key, "err", err)
		}
	}

	return out, nil
}
