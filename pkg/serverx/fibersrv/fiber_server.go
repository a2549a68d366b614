package fibersrv

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/marcodd23/go-micro-dbpool/pkg/configx"
	"github.com/marcodd23/go-micro-dbpool/pkg/logx"
	"github.com/marcodd23/go-micro-dbpool/pkg/serverx"
)

// FiberServer - Fiber server.
type FiberServer struct {
	Server *fiber.App
	config configx.Config
}

// NewFiberServer - Fiber server constructor.
func NewFiberServer(config configx.Config) serverx.Server[*fiber.App] {
	app := fiber.New(buildFiberConfig(config))

	return &FiberServer{Server: app, config: config}
}

func buildFiberConfig(config configx.Config) fiber.Config {
	fiberConfig := fiber.Config{
		AppName:       config.GetServiceName(),
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		JSONEncoder:   json.Marshal,
		JSONDecoder:   json.Unmarshal,
	}

	if serverConfig := config.GetServerConfig(); serverConfig != nil {
		fiberConfig.Concurrency = serverConfig.Concurrency
		fiberConfig.DisableStartupMessage = serverConfig.DisableStartupMessage
	}

	return fiberConfig
}

// GetServer - return the fiber server.
func (srv *FiberServer) GetServer() *fiber.App {
	return srv.Server
}

// RunSync - Run the server sync.
func (srv *FiberServer) RunSync() {
	if srv.Server != nil {
		runServer(srv)
	}
}

// RunAsync - Run the server async.
func (srv *FiberServer) RunAsync() {
	if srv.Server != nil {
		go func() {
			runServer(srv)
		}()
	}
}

// Setup - Receive a callback function setupFunc that let to configure the server.
func (srv *FiberServer) Setup(_ context.Context, setupFunc func(fiber *fiber.App)) {
	if srv.Server != nil {
		setupFunc(srv.Server)
	}
}

// Shutdown - shutdown the server.
func (srv *FiberServer) Shutdown(ctx context.Context) error {
	if srv.Server == nil {
		return nil
	}

	if err := srv.Server.ShutdownWithContext(ctx); err != nil {
		logx.GetLogger().LogError(ctx, "Error shutting down the Server", err)
		return err
	}

	logx.GetLogger().LogInfo(ctx, "Server shut down.. ")

	return nil
}

func runServer(srv *FiberServer) {
	port := "8080"
	if serverConfig := srv.config.GetServerConfig(); serverConfig != nil && serverConfig.Port != "" {
		port = serverConfig.Port
	}

	serverAddr := fmt.Sprintf(":%s", port)
	logx.GetLogger().LogDebug(context.Background(), fmt.Sprintf("Server listen on: %s", serverAddr))

	if err := srv.Server.Listen(serverAddr); err != nil {
		logx.GetLogger().LogPanic(context.TODO(), "Oops... server is not running! error:", err)
	}
}
