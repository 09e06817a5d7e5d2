package svc

import (
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"quotevault-api/internal/cache"
	"quotevault-api/internal/config"
	"quotevault-api/internal/model"
	"quotevault-api/internal/repo"
	"quotevault-api/internal/service"
	marketpkg "quotevault-api/pkg/market"

	// Import for side-effects: registers market data sources.
	_ "quotevault-api/pkg/market/sources/static"
	_ "quotevault-api/pkg/market/sources/yahoo"
)

type ServiceContext struct {
	Config config.Config

	Strategy *cache.Strategy
	Store    *cache.Store

	MarketConfig    *marketpkg.Config
	MarketProviders map[string]marketpkg.Provider
	DefaultMarket   marketpkg.Provider

	DBConn           sqlx.SqlConn
	PricePointsModel model.PricePointsModel
	Timelines        *repo.TimelineRepository

	Cache *service.Orchestrator
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config:   c,
		Strategy: cache.NewStrategy(c.Cache),
	}

	// The store degrades itself when Redis is missing; construction never fails.
	svc.Store = cache.NewStore(c.Redis, c.Cache.KeyPrefix, svc.Strategy)

	marketCfg := c.Market.Value
	if marketCfg == nil {
		marketCfg = marketpkg.MustLoad()
	}
	providers, err := marketCfg.BuildProviders()
	if err != nil {
		log.Fatalf("failed to build market providers: %v", err)
	}
	svc.MarketConfig = marketCfg
	svc.MarketProviders = providers
	if marketCfg.Default != "" {
		svc.DefaultMarket = providers[marketCfg.Default]
	}

	// Only inject the repository when a DSN is provided; the cache service
	// runs memory+redis+provider without one.
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		svc.PricePointsModel = model.NewPricePointsModel(conn)
		svc.Timelines = repo.NewTimelineRepository(svc.PricePointsModel, "USD")
	}

	orchestratorCfg := service.Config{
		Store:        svc.Store,
		Provider:     svc.DefaultMarket,
		Strategy:     svc.Strategy,
		FetchTimeout: c.FetchTimeout(),
		Currency:     "USD",
	}
	if svc.Timelines != nil {
		orchestratorCfg.Repository = svc.Timelines
	}
	svc.Cache = service.NewOrchestrator(orchestratorCfg)
	return svc
}
