// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tafiti-service/internal/config"
	"tafiti-service/internal/db"
	"tafiti-service/internal/eventbus"
	"tafiti-service/internal/gateway"
	"tafiti-service/internal/metrics"
	"tafiti-service/internal/payout"
	"tafiti-service/internal/pkg/idemcache"
	"tafiti-service/internal/pkg/jwt"
	"tafiti-service/internal/repository/postgres"
	"tafiti-service/internal/service/reconcile"
	"tafiti-service/internal/smsgw"
	"tafiti-service/internal/ws"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Server owns every long-lived resource of the process and knows how
// to shut them down in order.
type Server struct {
	cfg    *config.AppConfig
	logger *zap.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	bus   *eventbus.Bus
	http  *http.Server

	reconciler *reconcile.Reconciler
	hub        *ws.Hub

	bgCancel context.CancelFunc
}

func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	rdb, err := db.NewRedisClient(db.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: 10,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	verifier, err := jwt.LoadVerifier(cfg.JWT)
	if err != nil {
		pool.Close()
		rdb.Close()
		return nil, fmt.Errorf("failed to load jwt verifier: %w", err)
	}

	metrics.Init()

	// Repositories
	store := postgres.NewDB(pool)
	attempts := postgres.NewPaymentAttemptRepository(store)
	settlements := postgres.NewSettlementRepository(store)
	campaigns := postgres.NewRewardCampaignRepository(store)
	disbursements := postgres.NewRewardDisbursementRepository(store)
	ledger := postgres.NewLoyaltyLedgerRepository(store)
	integrations := postgres.NewBusinessIntegrationRepository(store)
	transactions := postgres.NewBusinessTransactionRepository(store)

	// External clients
	gatewayClient := gateway.NewClient(cfg.Gateway, logger)
	payoutClient := payout.NewClient(cfg.Payout, logger)
	smsClient := smsgw.NewClient(cfg.SMS, logger)

	bus := eventbus.New(cfg.EventWorkers, logger)
	hub := ws.NewHub(logger)
	hub.SubscribeBus(bus)

	deps := &dependencies{
		cfg:           cfg,
		logger:        logger,
		verifier:      verifier,
		rdb:           rdb,
		bus:           bus,
		hub:           hub,
		attempts:      attempts,
		settlements:   settlements,
		campaigns:     campaigns,
		disbursements: disbursements,
		ledger:        ledger,
		integrations:  integrations,
		transactions:  transactions,
		gateway:       gatewayClient,
		payout:        payoutClient,
		sms:           smsClient,
		cache:         idemcache.New(rdb),
	}

	router, webhooks := buildRouter(deps)

	reconciler := reconcile.NewReconciler(
		attempts,
		gatewayClient,
		webhooks,
		cfg.ReconcileInterval,
		cfg.ReconcileStuckFor,
		logger,
	)

	return &Server{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  rdb,
		bus:    bus,
		http: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		reconciler: reconciler,
		hub:        hub,
	}, nil
}

// Start runs the background loops and blocks serving HTTP until
// Shutdown or a listener error.
func (s *Server) Start() error {
	bgCtx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	go s.hub.Run(bgCtx)
	go s.reconciler.Run(bgCtx)

	s.logger.Info("server listening", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains HTTP, stops the background loops, flushes the event
// bus, and closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	if s.bgCancel != nil {
		s.bgCancel()
	}
	s.bus.Stop()

	s.redis.Close()
	s.pool.Close()

	s.logger.Info("server stopped")
	return err
}
