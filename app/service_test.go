package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/celer/api/fleet"
	"github.com/kilianp07/celer/config"
	"github.com/kilianp07/celer/core/geo"
	"github.com/kilianp07/celer/core/graph"
	"github.com/kilianp07/celer/core/logger"
	"github.com/kilianp07/celer/core/model"
	"github.com/kilianp07/celer/core/triplog"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Append(ctx context.Context, rec triplog.TripRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockStore) Query(ctx context.Context, q triplog.TripQuery) ([]triplog.TripRecord, error) {
	args := m.Called(ctx, q)
	recs, _ := args.Get(0).([]triplog.TripRecord)
	return recs, args.Error(1)
}

func (m *mockStore) Close() error { return m.Called().Error(0) }

// corridor is A-C-B with two 10 second edges.
func corridor(t *testing.T) (*graph.Graph, graph.NodeID, graph.NodeID) {
	t.Helper()
	b := graph.NewBuilder()
	pa := geo.Point{Lat: 40.7000, Lon: -74.0000}
	pc := geo.Point{Lat: 40.7010, Lon: -74.0000}
	pb := geo.Point{Lat: 40.7010, Lon: -73.9990}
	a, c, d := b.AddNode(pa), b.AddNode(pc), b.AddNode(pb)
	b.AddEdge(a, c, 10, geo.Haversine(pa, pc), 0)
	b.AddEdge(c, d, 10, geo.Haversine(pc, pb), 0)
	g, err := b.Build()
	require.NoError(t, err)
	return g, c, d
}

func testConfig(end string, drain bool) *config.Config {
	cfg := config.Default()
	cfg.Simulation.Start = "2015-01-01T08:00:00Z"
	cfg.Simulation.End = end
	cfg.Simulation.TickSeconds = 5
	cfg.Simulation.Vehicles = 1
	cfg.Simulation.Seed = 42
	cfg.Simulation.Drain = drain
	return cfg
}

func newService(t *testing.T, cfg *config.Config, store triplog.Store) *Service {
	t.Helper()
	g, c, d := corridor(t)
	req := model.NewRequest(g.Point(c), g.Point(d), cfg.Simulation.StartTime(), 1)
	svc, err := New(cfg,
		WithGraph(g),
		WithStore(store),
		WithRequests([]*model.Request{req}),
		WithLogger(logger.NopLogger{}),
	)
	require.NoError(t, err)
	return svc
}

func TestRunCompletesAndPersists(t *testing.T) {
	store := &mockStore{}
	store.On("Append", mock.Anything, mock.MatchedBy(func(r triplog.TripRecord) bool {
		return r.VehicleID == 0 && r.Period == "standard" && r.Revenue > 0
	})).Return(nil).Once()
	store.On("Close").Return(nil)

	svc := newService(t, testConfig("2015-01-01T08:01:00Z", false), store)
	sum, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Fulfilled)
	assert.Equal(t, 1, sum.Completed)
	assert.Equal(t, 1, sum.Utilised)
	assert.Zero(t, sum.Dropped)
	require.NoError(t, svc.Close())
	store.AssertExpectations(t)
}

func TestRunStopsAtEndWithoutDrain(t *testing.T) {
	store := &mockStore{}
	store.On("Close").Return(nil)
	svc := newService(t, testConfig("2015-01-01T08:00:05Z", false), store)
	sum, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Completed)
	assert.Equal(t, 1, sum.Busy)
	store.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestRunDrainsFleet(t *testing.T) {
	store := &mockStore{}
	store.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("Close").Return(nil)
	svc := newService(t, testConfig("2015-01-01T08:00:05Z", true), store)
	sum, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Completed)
	assert.Equal(t, 0, sum.Busy)
}

func TestRunReportsStoreFailure(t *testing.T) {
	store := &mockStore{}
	store.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	store.On("Close").Return(nil)
	svc := newService(t, testConfig("2015-01-01T08:01:00Z", false), store)
	sum, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, sum.Completed)
}

func TestRunCanceled(t *testing.T) {
	store := &mockStore{}
	store.On("Close").Return(nil)
	svc := newService(t, testConfig("2015-01-01T09:00:00Z", false), store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHandlerServesFleet(t *testing.T) {
	store := &mockStore{}
	store.On("Close").Return(nil)
	cfg := testConfig("2015-01-01T08:01:00Z", false)
	cfg.HTTP.Token = "tok"
	svc := newService(t, cfg, store)

	req := httptest.NewRequest("GET", "/api/fleet", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var out fleet.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Stats.Fleet)
	assert.Equal(t, 1, out.Stats.Pending)
	require.Len(t, out.Vehicles, 1)
}

func TestNewRequiresGraph(t *testing.T) {
	_, err := New(config.Default(), WithStore(&mockStore{}), WithLogger(logger.NopLogger{}))
	require.Error(t, err)
}
