package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_storefront/internal/adapters/hotelapi"
	server "hotel_storefront/internal/adapters/http_server"
	"hotel_storefront/internal/adapters/observability"
	redisad "hotel_storefront/internal/adapters/redis"
	"hotel_storefront/internal/adapters/widget"
	"hotel_storefront/internal/app"
	"hotel_storefront/internal/domain"
	"hotel_storefront/internal/shared"
	mysqlrepo "hotel_storefront/internal/storage/mysql"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve(cfg.MetricsAddr)

	// ledger (optional)
	var ledger domain.CheckoutLedger = mysqlrepo.Nop{}
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		ledger = mysqlrepo.New(db)
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}

	api, err := hotelapi.New(cfg.APIBase, cfg.APIKey, cfg.APIRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize hotel API client")
	}

	// deps
	checkout := app.NewCheckoutService(app.NewHandoffStore(cfg.HandoffTTL), app.PaymentDeps{
		Payments:  api,
		Slots:     cache,
		Ledger:    ledger,
		NewLoader: widget.Factory,
		SlotTTL:   cfg.SlotTTL,
		Defaults: domain.ShippingAddress{
			ContactName: cfg.ContactName,
			City:        cfg.City,
			Country:     cfg.Country,
			Address:     cfg.Address,
		},
	})
	store := app.NewStorefront(app.StorefrontDeps{
		Inventory: api,
		Loyalty:   app.NewLoyaltyService(api, cache, cfg.CacheTTL),
		Discounts: api,
		Checkout:  checkout,
		Ledger:    ledger,
		LoginURL:  cfg.LoginURL,
		ViewTTL:   cfg.ViewTTL,
	})
	go store.Run(ctx, time.Minute)

	// http
	srv := server.New(30 * time.Second)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Store: store, Checkout: checkout})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("api", cfg.APIBase).Msg("storefront listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
