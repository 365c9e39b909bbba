package chargers

import (
	"context"
	"encoding/json"
	"errors"
	"ev-trip-planner/internal/config"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/platform/obs"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// OverpassFinder implements ChargerFinder against an Overpass API interpreter.
//
// Every call waits a courtesy delay before the first request. Rate-limit
// answers (429) wait RateLimitBackoff, other failures wait RetryDelay, and the
// whole call is bounded by MaxAttempts requests.
type OverpassFinder struct {
	session   *http.Client
	endpoint  string
	userAgent string
	throttle  config.Throttle
	sleep     Sleeper
}

type Option func(*OverpassFinder)

func WithHTTPClient(c *http.Client) Option { return func(f *OverpassFinder) { f.session = c } }

func WithUserAgent(ua string) Option { return func(f *OverpassFinder) { f.userAgent = ua } }

func WithThrottle(t config.Throttle) Option { return func(f *OverpassFinder) { f.throttle = t } }

// WithSleeper replaces the blocking wait used for every delay.
func WithSleeper(s Sleeper) Option { return func(f *OverpassFinder) { f.sleep = s } }

func NewOverpassFinder(endpoint string, opts ...Option) (*OverpassFinder, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("overpass endpoint is empty")
	}

	f := &OverpassFinder{
		session:  &http.Client{Timeout: 30 * time.Second},
		endpoint: endpoint,
		throttle: config.DefaultThrottle(),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.throttle.MaxAttempts < 1 {
		f.throttle.MaxAttempts = 1
	}

	return f, nil
}

// Query builds the Overpass QL body for charging stations around a point.
func Query(lat, lon float64, radiusMeters int) string {
	return fmt.Sprintf(
		`[out:json][timeout:25];nwr["amenity"="charging_station"](around:%d,%s,%s);out center;`,
		radiusMeters,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
	)
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Center *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

func (e overpassElement) coordinate() (domain.Coordinate, bool) {
	if e.Lat != nil && e.Lon != nil {
		return domain.Coordinate{Lat: *e.Lat, Lon: *e.Lon}, true
	}
	if e.Center != nil && e.Center.Lat != nil && e.Center.Lon != nil {
		return domain.Coordinate{Lat: *e.Center.Lat, Lon: *e.Center.Lon}, true
	}
	return domain.Coordinate{}, false
}

// FindChargingStation returns the first charger with usable coordinates within
// radiusMeters of (lat, lon). A nil waypoint and nil error mean nothing was found.
func (f *OverpassFinder) FindChargingStation(
	ctx context.Context,
	lat, lon float64,
	radiusMeters int,
) (_ *domain.Waypoint, err error) {
	defer obs.Time(ctx, "overpass.FindChargingStation")(&err)

	if err := f.sleep(ctx, f.throttle.CourtesyDelay); err != nil {
		return nil, err
	}

	body := url.Values{"data": {Query(lat, lon, radiusMeters)}}.Encode()

	var lastErr error
	for attempt := 1; attempt <= f.throttle.MaxAttempts; attempt++ {
		elements, err := f.fetch(ctx, body)
		if err == nil {
			return pickCharger(elements), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err

		if attempt == f.throttle.MaxAttempts {
			break
		}

		wait := f.throttle.RetryDelay
		var he *httpStatusError
		if errors.As(err, &he) && he.Code == http.StatusTooManyRequests {
			wait = f.throttle.RateLimitBackoff
		}
		slog.InfoContext(ctx, "charger search retry",
			"req_id", obs.RequestID(ctx), "attempt", attempt, "wait_ms", wait.Milliseconds(), "err", err)

		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, &domain.DiscoveryError{Attempts: f.throttle.MaxAttempts, Err: lastErr}
}

func (f *OverpassFinder) fetch(ctx context.Context, body string) ([]overpassElement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}

	return decoded.Elements, nil
}

func pickCharger(elements []overpassElement) *domain.Waypoint {
	for _, e := range elements {
		c, ok := e.coordinate()
		if !ok {
			continue
		}

		label := strings.TrimSpace(e.Tags["name"])
		if label == "" {
			label = domain.DefaultChargerLabel
		}

		return &domain.Waypoint{Coordinate: c, Label: label, Kind: domain.WaypointCharger}
	}

	return nil
}
