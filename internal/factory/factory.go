package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/microparty/microparty/internal/barrier"
	"github.com/microparty/microparty/internal/dependencies/clock"
	"github.com/microparty/microparty/internal/dependencies/random"
	"github.com/microparty/microparty/internal/push"
	"github.com/microparty/microparty/internal/services/round"
	"github.com/microparty/microparty/internal/services/session"
	"github.com/microparty/microparty/internal/storage"
	"github.com/microparty/microparty/internal/storage/memory"
	redisstorage "github.com/microparty/microparty/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Barriers          *barrier.Registry
	SessionController *session.Controller
	RoundRunner       *round.Runner
	HubManager        *push.Manager
	Broadcaster       *push.Broadcaster
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// RoundConfig holds the phase-loop tunables (optional)
	// If zero value, defaults to round.DefaultConfig()
	RoundConfig round.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	roundCfg := cfg.RoundConfig
	if roundCfg.WinningScore == 0 {
		roundCfg = round.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), roundCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, roundCfg round.Config, logger *slog.Logger) *App {
	barriers := barrier.NewRegistry(clk)
	sessionController := session.NewController(store, clk, rnd, barriers, logger)
	hubManager := push.NewManager(logger)
	broadcaster := push.NewBroadcaster(hubManager, logger)
	roundRunner := round.NewRunner(sessionController, barriers, broadcaster, roundCfg, logger)

	return &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Barriers:          barriers,
		SessionController: sessionController,
		RoundRunner:       roundRunner,
		HubManager:        hubManager,
		Broadcaster:       broadcaster,
	}
}

// Close releases the app's long-lived resources
func (a *App) Close() {
	a.RoundRunner.Close()
	a.HubManager.Close()
}
