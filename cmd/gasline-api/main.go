// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gasline/internal/config"
	httptransport "gasline/internal/http"
	"gasline/internal/infra"
	"gasline/internal/maps"
	"gasline/internal/modules/assignment"
	"gasline/internal/modules/earnings"
	"gasline/internal/modules/location"
	"gasline/internal/modules/order"
	"gasline/internal/modules/pricing"
	"gasline/internal/modules/rider"
	"gasline/internal/modules/station"
	"gasline/internal/push"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	redisClient := infra.NewRedis(cfg.Redis.Addr)
	verifier := infra.NewJWTVerifier(cfg.Auth.JWTSecret)

	hub := push.NewHub()

	stationSvc := station.NewService(station.NewStore(dbPool))
	riderSvc := rider.NewService(rider.NewStore(dbPool, redisClient))
	earningsSvc := earnings.NewService(earnings.NewStore(dbPool), cfg.Earnings.CommissionRate)

	orderSvc := order.NewService(
		order.NewStore(dbPool),
		stationSvc,
		riderSvc,
		earningsSvc,
		push.NewOrderPublisher(hub),
		cfg.Orders.DeliveryCodeDigits,
	)

	assignSvc := assignment.NewService(orderSvc, riderSvc, cfg.Assignment)
	locationSvc := location.NewService(location.NewStore(dbPool, redisClient))

	var distance maps.DistanceEstimator = maps.HaversineEstimator{}
	if cfg.Maps.APIKey != "" {
		route, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		distance = route
	}
	pricingSvc := pricing.NewService(stationSvc, distance, cfg.Pricing)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Verifier:   verifier,
		Order:      orderSvc,
		Assignment: assignSvc,
		Rider:      riderSvc,
		Station:    stationSvc,
		Earnings:   earningsSvc,
		Location:   locationSvc,
		Pricing:    pricingSvc,
		Hub:        hub,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
