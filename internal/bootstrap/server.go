package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/happyflights/flightbooking/api"
	"github.com/happyflights/flightbooking/config"
	_ "github.com/happyflights/flightbooking/internal/docs"
	"github.com/happyflights/flightbooking/internal/metrics"
	"github.com/happyflights/flightbooking/internal/service/booking"
	"github.com/happyflights/flightbooking/internal/service/cities"
	"github.com/happyflights/flightbooking/internal/service/flights"
	"github.com/happyflights/flightbooking/pkg/logger"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Cities   cities.CityUseCase
	Verifier api.TokenVerifier
	// Idempotency is optional. Without it ticket creation is not deduplicated.
	Idempotency api.IdempotencyStore
	Health      map[string]HealthCheck
	// Gateway is the optional gRPC gateway served under /v1.
	Gateway http.Handler
}

// NewRouter builds the HTTP handler: the REST API under /api plus health,
// metrics, the gRPC gateway under /v1 when set and, when enabled, swagger docs.
func NewRouter(cfg config.HTTPConfig, deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(), metrics.Middleware(), api.Timeout(cfg.RequestTimeout()))

	router.GET("/health", health(deps.Health))
	router.GET("/metrics", metrics.Handler())
	if cfg.SwaggerEnabled {
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.WrapHandler))
	}

	admin := api.RequireAdmin(deps.Verifier)
	var idempotency gin.HandlerFunc
	if deps.Idempotency != nil {
		idempotency = api.Idempotency(deps.Idempotency)
	}

	group := router.Group("/api")
	api.NewFlightHandler(deps.Flights).Register(group.Group("/flights"), admin)
	api.NewTicketHandler(deps.Bookings).Register(group.Group("/tickets"), idempotency)
	api.NewAdminHandler(deps.Bookings).Register(group.Group("/admin"), admin)
	api.NewCityHandler(deps.Cities).Register(group.Group("/cities"), admin)

	if deps.Gateway != nil {
		router.Any("/v1/*path", gin.WrapH(deps.Gateway))
	}

	return router
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(c.Request.Context()); err != nil {
				logger.WithComponent("health").Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
				results[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "up"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "dependencies": results})
	}
}

// Run serves the API and, when grpcCfg is enabled, the gRPC services with
// their gateway mounted under /v1. It blocks until ctx is canceled or a
// server fails.
func Run(ctx context.Context, httpCfg config.HTTPConfig, grpcCfg config.GRPCConfig, deps Dependencies) error {
	errCh := make(chan error, 2)

	var grpcSrv *grpc.Server
	if grpcCfg.Enabled {
		lis, err := net.Listen("tcp", grpcCfg.Address)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", grpcCfg.Address, err)
		}
		conn, err := dialGRPC(lis.Addr())
		if err != nil {
			lis.Close()
			return err
		}
		defer conn.Close()
		if deps.Gateway, err = NewGateway(conn); err != nil {
			lis.Close()
			return err
		}

		grpcSrv = NewGRPCServer(deps)
		go func() {
			logger.L.Info("grpc server listening", zap.String("address", grpcCfg.Address))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server %s: %w", grpcCfg.Address, err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              httpCfg.Address,
		Handler:           NewRouter(httpCfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.L.Info("http server listening", zap.String("address", httpCfg.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server %s: %w", httpCfg.Address, err)
		}
	}()

	select {
	case err := <-errCh:
		if grpcSrv != nil {
			grpcSrv.Stop()
		}
		_ = srv.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
			logger.L.Info("grpc server stopped")
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.L.Info("http server stopped")
		return nil
	}
}
