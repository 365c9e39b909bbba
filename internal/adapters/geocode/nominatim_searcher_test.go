package geocode

import (
	"context"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/ports"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimSearcherSearch(t *testing.T) {
	var gotUA, gotQ, gotLimit, gotFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		gotUA = r.Header.Get("User-Agent")
		gotQ = r.URL.Query().Get("q")
		gotLimit = r.URL.Query().Get("limit")
		gotFormat = r.URL.Query().Get("format")
		_, _ = w.Write([]byte(`[
			{"display_name":"Stockholm, Sweden","lat":"59.3251172","lon":"18.0710935"},
			{"display_name":"broken","lat":"north","lon":"18"}
		]`))
	}))
	defer server.Close()

	s, err := NewNominatimSearcher(server.URL, "ev-trip-planner-test", nil)
	require.NoError(t, err)

	got, err := s.Search(context.Background(), "  Stockholm   Sweden ")
	require.NoError(t, err)

	assert.Equal(t, "ev-trip-planner-test", gotUA)
	assert.Equal(t, "Stockholm Sweden", gotQ)
	assert.Equal(t, "5", gotLimit)
	assert.Equal(t, "json", gotFormat)
	assert.Equal(t, []ports.Location{
		{DisplayName: "Stockholm, Sweden", Coordinate: domain.Coordinate{Lat: 59.3251172, Lon: 18.0710935}},
	}, got)
}

func TestNominatimSearcherShortQuery(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	s, err := NewNominatimSearcher(server.URL, "ua", nil)
	require.NoError(t, err)

	got, err := s.Search(context.Background(), " ab ")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestNominatimSearcherErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	s, err := NewNominatimSearcher(server.URL, "ua", nil)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "Oslo")
	assert.ErrorContains(t, err, "status 403")
}

type memoryLocationCache struct {
	data map[string][]ports.Location
}

func (m *memoryLocationCache) Get(_ context.Context, q string) ([]ports.Location, bool, error) {
	v, ok := m.data[q]
	return v, ok, nil
}

func (m *memoryLocationCache) Put(_ context.Context, q string, r []ports.Location) error {
	m.data[q] = r
	return nil
}

func TestNominatimSearcherCachesResults(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`[{"display_name":"Oslo, Norway","lat":"59.91","lon":"10.75"}]`))
	}))
	defer server.Close()

	cache := &memoryLocationCache{data: map[string][]ports.Location{}}
	s, err := NewNominatimSearcher(server.URL, "ua", cache)
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "Oslo")
	require.NoError(t, err)
	got, err := s.Search(context.Background(), "OSLO")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	require.Len(t, got, 1)
	assert.Equal(t, "Oslo, Norway", got[0].DisplayName)
}
