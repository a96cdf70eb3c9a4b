// README: Entry point; loads config, wires the document store, events and services, then serves HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/config"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/docstore"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/events"
	httptransport "github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/http"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/infra"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/maps"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/matching"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/trip"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/user"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	firebaseApp := infra.NewFirebaseApp(cfg.Firebase)
	defer firebaseApp.Close()

	docs, closeStore, err := openStore(ctx, cfg, firebaseApp)
	if err != nil {
		log.Fatal("store init failed", "backend", cfg.Store.Backend, "error", err)
	}
	defer closeStore()

	publisher := openPublisher(cfg, log)
	defer publisher.Close()

	deps := trip.Deps{
		Logger:    log.With("module", "trip"),
		Publisher: publisher,
		Metrics:   metrics,
	}
	if cfg.Maps.APIKey != "" {
		geocoder, err := maps.NewGeocoder(cfg.Maps.APIKey, "co")
		if err != nil {
			log.Warn("geocoder disabled", "error", err)
		} else {
			deps.Geocoder = geocoder
		}
	}

	tripStore := trip.NewStore(docs)
	tripSvc := trip.NewService(tripStore, deps)
	matchingSvc := matching.NewService(tripStore, cfg.Trips.TimezoneOffsetMinutes, log.With("module", "matching"), metrics)
	userSvc := user.NewService(user.NewStore(docs), log.With("module", "user"))

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Trips:       tripSvc,
		Matching:    matchingSvc,
		Users:       userSvc,
		Verifier:    infra.NewFirebaseVerifier(firebaseApp),
		Logger:      log,
		Metrics:     metrics,
		Gatherer:    reg,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("listening", "addr", cfg.HTTP.Addr, "backend", cfg.Store.Backend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server stopped", "error", err)
	}
	log.Info("server stopped")
}

// openStore connects the configured document backend and returns its closer.
func openStore(ctx context.Context, cfg config.Config, app *infra.FirebaseApp) (docstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, nil, err
		}
		store := docstore.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case config.BackendMongo:
		client, err := infra.NewMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		closer := func() { _ = client.Disconnect(context.Background()) }
		return docstore.NewMongoStore(client.Database(cfg.Mongo.Database)), closer, nil
	case config.BackendMemory:
		return docstore.NewMemoryStore(), func() {}, nil
	default:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, err
		}
		// the client is owned by app and closed with it
		return docstore.NewFirestoreStore(client), func() {}, nil
	}
}

// openPublisher fans events out to every configured transport.
func openPublisher(cfg config.Config, log logger.Logger) events.Publisher {
	var pubs events.Multi
	if len(cfg.Kafka.Brokers) > 0 {
		pubs = append(pubs, events.NewKafkaPublisher(infra.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)))
	}
	if cfg.Redis.Addr != "" {
		pubs = append(pubs, events.NewRedisPublisher(infra.NewRedis(cfg.Redis.Addr), cfg.Redis.Channel))
	}
	switch len(pubs) {
	case 0:
		log.Info("trip events disabled")
		return events.NopPublisher{}
	case 1:
		return pubs[0]
	default:
		return pubs
	}
}
