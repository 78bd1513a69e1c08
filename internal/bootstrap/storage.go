package bootstrap

import (
	"context"
	"fmt"

	"github.com/happyflights/flightbooking/config"
	"github.com/happyflights/flightbooking/internal/repository"
	"github.com/happyflights/flightbooking/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Storage is the repository set selected by database.driver.
type Storage struct {
	Tx      repository.Transactor
	Flights repository.FlightRepository
	Tickets repository.TicketRepository
	Cities  repository.CityRepository

	ping  func(ctx context.Context) error
	close func()
}

func (s *Storage) Ping(ctx context.Context) error { return s.ping(ctx) }

func (s *Storage) Close() { s.close() }

// NewMemoryStorage backs the repositories with an in-process store. Data does
// not survive a restart.
func NewMemoryStorage() *Storage {
	store := repository.NewMemoryStore()
	return &Storage{
		Tx:      store,
		Flights: store.Flights(),
		Tickets: store.Tickets(),
		Cities:  store.Cities(),
		ping:    func(context.Context) error { return nil },
		close:   func() {},
	}
}

// OpenStorage connects to the configured database and applies the schema
// when auto_migrate is set.
func OpenStorage(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	if cfg.Driver == config.DriverMemory {
		logger.L.Warn("using in-memory storage, data will not be persisted")
		return NewMemoryStorage(), nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.L.Info("database schema applied")
	}
	logger.L.Info("connected to postgres", zap.String("host", cfg.Host), zap.String("database", cfg.Name))

	return &Storage{
		Tx:      repository.NewTxManager(pool),
		Flights: repository.NewFlightRepository(pool),
		Tickets: repository.NewTicketRepository(pool),
		Cities:  repository.NewCityRepository(pool),
		ping:    pool.Ping,
		close:   pool.Close,
	}, nil
}
