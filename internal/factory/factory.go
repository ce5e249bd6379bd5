package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/ciocnim/arena/internal/config"
	"github.com/ciocnim/arena/internal/dependencies/clock"
	"github.com/ciocnim/arena/internal/dependencies/random"
	"github.com/ciocnim/arena/internal/pubsub"
	"github.com/ciocnim/arena/internal/services/clash"
	"github.com/ciocnim/arena/internal/services/counter"
	"github.com/ciocnim/arena/internal/services/profile"
	"github.com/ciocnim/arena/internal/services/team"
	"github.com/ciocnim/arena/internal/storage"
	"github.com/ciocnim/arena/internal/storage/memory"
	redisstorage "github.com/ciocnim/arena/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	Storage storage.Storage
	Broker  pubsub.Broker

	Clock  clock.Clock
	Random random.Random

	CounterService *counter.Service
	TeamService    *team.Service
	ProfileService *profile.Service
	Engine         *clash.Engine
}

// New creates a new application with all dependencies wired. The redis
// backend shares one client between storage and the pub/sub broker.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var (
		store  storage.Storage
		broker pubsub.Broker
	)
	switch cfg.Storage {
	case config.StorageMemory:
		store = memory.New()
		broker = pubsub.NewMemoryBroker(logger)
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.RoomTTL = cfg.RoomTTL
		redisStore, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		store = redisStore
		broker = pubsub.NewRedisBroker(redisStore.Client(), logger)
	default:
		return nil, errors.New("invalid storage backend: must be 'memory' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	grants := profile.GrantConfig{
		MatchmakingPermyriad: cfg.GoldenMatchmakingPermyriad,
		HourlyPermyriad:      cfg.GoldenHourlyPermyriad,
		RollInterval:         cfg.GoldenRollInterval,
	}

	return newWithDependencies(store, broker, clk, rnd, grants, cfg.TeamLogBound, logger), nil
}

// newWithDependencies creates an App with the given dependencies
func newWithDependencies(
	store storage.Storage,
	broker pubsub.Broker,
	clk clock.Clock,
	rnd random.Random,
	grants profile.GrantConfig,
	teamLogBound int,
	logger *slog.Logger,
) *App {
	counterService := counter.New(store, broker, logger)
	teamService := team.New(store, broker, clk, teamLogBound, logger)
	profileService := profile.New(store, clk, rnd, grants, logger)
	engine := clash.NewEngine(store, broker, counterService, teamService, profileService, clk, rnd, logger)

	return &App{
		Storage:        store,
		Broker:         broker,
		Clock:          clk,
		Random:         rnd,
		CounterService: counterService,
		TeamService:    teamService,
		ProfileService: profileService,
		Engine:         engine,
	}
}
