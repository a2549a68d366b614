package fibersrv_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/marcodd23/go-micro-dbpool/pkg/configx"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/pool"
	"github.com/marcodd23/go-micro-dbpool/pkg/serverx/fibersrv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMonitor struct {
	stats map[string]pool.Stats
	ping  map[string]error
}

func (m fakeMonitor) Stats() map[string]pool.Stats {
	return m.stats
}

func (m fakeMonitor) Ping(context.Context) map[string]error {
	return m.ping
}

func newApp(t *testing.T, monitor fibersrv.PoolMonitor) *fiber.App {
	t.Helper()

	cfg := configx.BaseConfig{
		Name:   "dbpool-test",
		Server: &configx.ServerConfig{Port: "0", DisableStartupMessage: true},
	}

	srv := fibersrv.NewFiberServer(cfg)
	srv.Setup(context.Background(), func(app *fiber.App) {
		fibersrv.RegisterPoolRoutes(app, "/admin/db", monitor)
	})

	return srv.GetServer()
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestHealthUp(t *testing.T) {
	app := newApp(t, fakeMonitor{ping: map[string]error{"MAIN_DB": nil, "MAIN_DB/replica": nil}})

	status, body := get(t, app, "/admin/db/health")
	require.Equal(t, http.StatusOK, status)

	var resp fibersrv.HealthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "UP", resp.Status)
	assert.Equal(t, map[string]string{"MAIN_DB": "UP", "MAIN_DB/replica": "UP"}, resp.Pools)
	assert.Empty(t, resp.Errors)
}

func TestHealthDown(t *testing.T) {
	app := newApp(t, fakeMonitor{ping: map[string]error{"MAIN_DB": nil, "AUDIT_DB": errors.New("connection refused")}})

	status, body := get(t, app, "/admin/db/health")
	require.Equal(t, http.StatusServiceUnavailable, status)

	var resp fibersrv.HealthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "DOWN", resp.Status)
	assert.Equal(t, "UP", resp.Pools["MAIN_DB"])
	assert.Equal(t, "DOWN", resp.Pools["AUDIT_DB"])
	assert.Equal(t, "connection refused", resp.Errors["AUDIT_DB"])
}

func TestStats(t *testing.T) {
	app := newApp(t, fakeMonitor{stats: map[string]pool.Stats{
		"MAIN_DB": {Capacity: 4, Idle: 1, InUse: 2, TotalCreated: 3},
	}})

	status, body := get(t, app, "/admin/db/stats")
	require.Equal(t, http.StatusOK, status)

	var stats map[string]pool.Stats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 4, stats["MAIN_DB"].Capacity)
	assert.Equal(t, 2, stats["MAIN_DB"].InUse)
	assert.Equal(t, int64(3), stats["MAIN_DB"].TotalCreated)
}

func TestShardManagerIsAPoolMonitor(t *testing.T) {
	var _ fibersrv.PoolMonitor = pool.NewShardManager()

	app := newApp(t, pool.NewShardManager())
	status, body := get(t, app, "/admin/db/stats")
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{}`, string(body))
}
