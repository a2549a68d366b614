package fibersrv

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/marcodd23/go-micro-dbpool/pkg/dbx/pool"
)

const (
	statusUp   = "UP"
	statusDown = "DOWN"

	defaultHealthTimeout = 3 * time.Second
)

// PoolMonitor exposes the state of the connection pools of an application.
// *pool.ShardManager implements it.
type PoolMonitor interface {
	Stats() map[string]pool.Stats
	Ping(ctx context.Context) map[string]error
}

// HealthResponse is the body of the health route.
type HealthResponse struct {
	Status string            `json:"status"`
	Pools  map[string]string `json:"pools"`
	Errors map[string]string `json:"errors,omitempty"`
}

// RegisterPoolRoutes mounts under prefix:
//   - GET <prefix>/health: pings every pool, 503 when any of them fails.
//   - GET <prefix>/stats: the statistics of every pool.
func RegisterPoolRoutes(router fiber.Router, prefix string, monitor PoolMonitor) {
	group := router.Group(prefix)

	group.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), defaultHealthTimeout)
		defer cancel()

		resp := HealthResponse{Status: statusUp, Pools: map[string]string{}}
		for name, err := range monitor.Ping(ctx) {
			if err == nil {
				resp.Pools[name] = statusUp
				continue
			}

			resp.Status = statusDown
			resp.Pools[name] = statusDown
			if resp.Errors == nil {
				resp.Errors = map[string]string{}
			}
			resp.Errors[name] = err.Error()
		}

		if resp.Status == statusDown {
			return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
		}

		return c.JSON(resp)
	})

	group.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(monitor.Stats())
	})
}
