package routing

import (
	"context"
	"encoding/json"
	"errors"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/platform/obs"
	"ev-trip-planner/internal/ports"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// OSRMProvider implements RouteProvider against an OSRM HTTP server.
//
// Coordinates are converted to longitude-first order when building the URL.
// An optional RouteCache is consulted before any request is issued.
// The provider is safe for concurrent use.
type OSRMProvider struct {
	session      *http.Client
	baseURL      string
	profile      string
	userAgent    string
	cache        ports.RouteCache
	maxAttempts  int
	retryBackoff time.Duration
}

type Option func(*OSRMProvider)

func WithHTTPClient(c *http.Client) Option { return func(o *OSRMProvider) { o.session = c } }

func WithCache(c ports.RouteCache) Option { return func(o *OSRMProvider) { o.cache = c } }

func WithUserAgent(ua string) Option { return func(o *OSRMProvider) { o.userAgent = ua } }

// WithRetry sets the transport retry budget; attempts below 1 are ignored.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(o *OSRMProvider) {
		if attempts >= 1 {
			o.maxAttempts = attempts
		}
		o.retryBackoff = backoff
	}
}

func NewOSRMProvider(baseURL string, opts ...Option) (*OSRMProvider, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("OSRM base url is empty")
	}

	provider := &OSRMProvider{
		session:      &http.Client{Timeout: 15 * time.Second},
		baseURL:      baseURL,
		profile:      "driving",
		maxAttempts:  3,
		retryBackoff: 300 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
		Geometry *geojson.Geometry `json:"geometry"`
		Legs     []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// FetchRoute requests a full-overview GeoJSON route through coords.
func (o *OSRMProvider) FetchRoute(
	ctx context.Context,
	coords []domain.Coordinate,
) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "osrm.FetchRoute")(&err)

	if len(coords) < 2 {
		return nil, &domain.ValidationError{Field: "coordinates", Reason: "a route needs at least two coordinates"}
	}

	key := CacheKey(coords)
	if o.cache != nil {
		cached, ok, err := o.cache.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "route cache read failed", "key", key, "err", err)
		} else if ok {
			return cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/route/v1/%s/%s", o.baseURL, o.profile, coordinatePath(coords))

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("overview", "full")
		q.Set("geometries", "geojson")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &domain.RoutingError{Op: "failed to fetch route", Err: err}
	}
	defer resp.Body.Close()

	var decoded osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &domain.RoutingError{Op: "decode route response", Err: err}
	}

	route, err := toRoute(decoded, len(coords))
	if err != nil {
		return nil, &domain.RoutingError{Op: "no route found", Err: err}
	}

	if o.cache != nil {
		if err := o.cache.Put(ctx, key, route); err != nil {
			slog.WarnContext(ctx, "route cache write failed", "key", key, "err", err)
		}
	}

	return route, nil
}

func toRoute(decoded osrmResponse, coordCount int) (*domain.Route, error) {
	if decoded.Code != "" && decoded.Code != "Ok" {
		return nil, fmt.Errorf("provider code %q: %s", decoded.Code, decoded.Message)
	}
	if len(decoded.Routes) == 0 {
		return nil, errors.New("response contains no routes")
	}

	r := decoded.Routes[0]

	var line orb.LineString
	if r.Geometry != nil {
		ls, ok := r.Geometry.Geometry().(orb.LineString)
		if !ok {
			return nil, fmt.Errorf("unexpected geometry type %q", r.Geometry.Type)
		}
		line = ls
	}

	legs := make([]domain.RouteLeg, 0, len(r.Legs))
	for _, l := range r.Legs {
		legs = append(legs, domain.RouteLeg{DistanceMeters: l.Distance, DurationSeconds: l.Duration})
	}
	if len(legs) != coordCount-1 {
		return nil, fmt.Errorf("expected %d legs, got %d", coordCount-1, len(legs))
	}

	return &domain.Route{
		Geometry:        line,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
		Legs:            legs,
	}, nil
}

// coordinatePath encodes coords as "lon,lat;lon,lat;...".
func coordinatePath(coords []domain.Coordinate) string {
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts, formatFloat(c.Lon)+","+formatFloat(c.Lat))
	}
	return strings.Join(parts, ";")
}

// CacheKey normalizes coords to six decimals so nearby repeat requests share an entry.
func CacheKey(coords []domain.Coordinate) string {
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts, strconv.FormatFloat(c.Lon, 'f', 6, 64)+","+strconv.FormatFloat(c.Lat, 'f', 6, 64))
	}
	return strings.Join(parts, ";")
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
