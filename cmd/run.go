package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"ispwallet/config"
	"ispwallet/database"
	"ispwallet/infrastructure"
	"ispwallet/repository"
	"ispwallet/service"
)

// application is the composition root: everything the running process holds.
type application struct {
	db         *database.DB
	natsClient *infrastructure.NATSClient

	ledger     *service.LedgerService
	cashback   *service.CashbackService
	activation *service.ActivationService
	topUp      *service.TopUpService
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting ispwallet...")

	cfg := config.Get()

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	app := &application{db: db}

	// NATS is best-effort: a broker outage must not keep the ledger from
	// serving, so a failed connect falls back to discarding events.
	var eventPublisher service.EventPublisher
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		log.WithError(err).Warn("NATS unavailable, domain events will be discarded")
		eventPublisher = infrastructure.NewNoopEventPublisher()
	} else {
		app.natsClient = natsClient
		natsPublisher := infrastructure.NewNATSEventPublisher(natsClient)
		if err := natsPublisher.EnsureDomainEventStream(); err != nil {
			return fmt.Errorf("failed to ensure domain event stream: %w", err)
		}
		eventPublisher = natsPublisher
		log.WithField("servers", cfg.NATSServers).Info("NATS connected")
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, func() service.TransactionalEventPublisher {
		return infrastructure.NewNATSTransactionalPublisher(eventPublisher)
	})

	log.Info("Initializing services...")
	app.ledger = service.NewLedgerService(uowFactory, cfg.MaxBalanceRetries)
	app.cashback = service.NewCashbackService(uowFactory, app.ledger)
	app.activation = service.NewActivationService(uowFactory, app.ledger)

	if cfg.OmisePublicKey != "" && cfg.OmiseSecretKey != "" {
		gateway, err := infrastructure.NewOmiseGateway(cfg.OmisePublicKey, cfg.OmiseSecretKey)
		if err != nil {
			return fmt.Errorf("failed to initialize payment gateway: %w", err)
		}
		app.topUp = service.NewTopUpService(uowFactory, app.ledger, gateway)
	} else {
		log.Warn("Omise keys not configured, top-ups disabled")
	}
	log.Info("Services initialized")

	httpServer := app.startHTTPServer(cfg.MetricsAddr)

	log.WithField("environment", cfg.Environment).Info("ispwallet is running")
	<-ctx.Done()

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	if app.natsClient != nil {
		if err := app.natsClient.Close(); err != nil {
			log.WithError(err).Warn("Error closing NATS connection")
		}
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}

// startHTTPServer serves prometheus metrics and the health probe.
func (a *application) startHTTPServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", a.handleHealth)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("Metrics and health listener started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP listener failed")
		}
	}()

	return server
}

func (a *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}
