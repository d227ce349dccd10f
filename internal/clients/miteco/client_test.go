package miteco

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dpup/prefab/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chane12/fuelroute/server/internal/cache"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
)

const feedBody = `{
  "Fecha": "01/03/2025 12:05:13",
  "ListaEESSPrecio": [
    {"IDEESS": "4375", "Rótulo": "REPSOL", "Latitud": "40,600800", "Longitud (WGS84)": "-3,708600", "Precio Gasoleo A": "1,459"},
    {"IDEESS": "9001", "Rótulo": "ROTA", "Latitud": "", "Longitud (WGS84)": "", "Precio Gasoleo A": "1,399"}
  ],
  "Nota": "",
  "ResultadoConsulta": "OK"
}`

// MockHTTPDoer is a mock implementation of HTTPDoer
type MockHTTPDoer struct {
	mock.Mock
}

func (m *MockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func hostIs(host string) any {
	return mock.MatchedBy(func(req *http.Request) bool { return req.URL.Host == host })
}

func TestFetchCatalog_Direct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "application/json")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, feedBody)
	}))
	defer server.Close()

	client := NewClientWithHTTPDoer(server.URL, nil, server.Client(), nil)
	catalog, err := client.FetchCatalog(logging.EnsureLogger(t.Context()))
	require.NoError(t, err)

	require.Len(t, catalog.Stations, 1)
	require.Len(t, catalog.Skipped, 1)
	price, ok := catalog.Stations[0].Price(stations.Diesel)
	assert.True(t, ok)
	assert.InDelta(t, 1.459, price, 1e-9)
}

func TestFetchRecords_FallsBackThroughProxies(t *testing.T) {
	wrapped, err := json.Marshal(map[string]string{"contents": feedBody})
	require.NoError(t, err)

	doer := &MockHTTPDoer{}
	doer.On("Do", hostIs("feed.example")).Return(nil, errors.New("connection reset")).Once()
	doer.On("Do", hostIs("first.example")).Return(createMockResponse(403, "blocked"), nil).Once()
	doer.On("Do", hostIs("second.example")).Return(createMockResponse(200, string(wrapped)), nil).Once()

	client := NewClientWithHTTPDoer("https://feed.example/prices/", []Proxy{
		{Template: "https://first.example/?%s"},
		{Template: "https://second.example/get?url=%s", Wrapped: true},
		{Template: "https://third.example/?%s"},
	}, doer, nil)

	records, err := client.FetchRecords(logging.EnsureLogger(t.Context()))
	require.NoError(t, err)
	assert.Len(t, records, 2)
	doer.AssertExpectations(t)
	doer.AssertNotCalled(t, "Do", hostIs("third.example"))
}

func TestFetchRecords_AllSourcesFail(t *testing.T) {
	doer := &MockHTTPDoer{}
	doer.On("Do", mock.Anything).Return(createMockResponse(503, "down"), nil)

	client := NewClientWithHTTPDoer("https://feed.example/", DefaultProxies, doer, nil)
	_, err := client.FetchRecords(logging.EnsureLogger(t.Context()))
	require.ErrorIs(t, err, ErrUnavailable)
	doer.AssertNumberOfCalls(t, "Do", 1+len(DefaultProxies))
}

func TestFetchRecords_EmptyCatalogIsAnError(t *testing.T) {
	doer := &MockHTTPDoer{}
	doer.On("Do", mock.Anything).Return(createMockResponse(200, `{"ListaEESSPrecio": [], "ResultadoConsulta": "OK"}`), nil)

	client := NewClientWithHTTPDoer("https://feed.example/", nil, doer, nil)
	_, err := client.FetchRecords(logging.EnsureLogger(t.Context()))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFetchRecords_UsesCache(t *testing.T) {
	doer := &MockHTTPDoer{}
	doer.On("Do", mock.Anything).Return(createMockResponse(200, feedBody), nil).Once()

	client := NewClientWithHTTPDoer("https://feed.example/", nil, doer, cache.NewCache())
	for i := 0; i < 3; i++ {
		records, err := client.FetchRecords(logging.EnsureLogger(t.Context()))
		require.NoError(t, err)
		assert.Len(t, records, 2)
	}
	doer.AssertNumberOfCalls(t, "Do", 1)
}

func TestFetchRecords_ServesStaleCopyOnFailure(t *testing.T) {
	c := cache.NewCache()
	doer := &MockHTTPDoer{}
	doer.On("Do", mock.Anything).Return(createMockResponse(200, feedBody), nil).Once()
	doer.On("Do", mock.Anything).Return(nil, errors.New("offline"))

	client := NewClientWithHTTPDoer("https://feed.example/", nil, doer, c)
	client.SetTTL(100 * time.Millisecond)

	_, err := client.FetchRecords(logging.EnsureLogger(t.Context()))
	require.NoError(t, err)

	time.Sleep(120 * time.Millisecond)
	records, err := client.FetchRecords(logging.EnsureLogger(t.Context()))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
