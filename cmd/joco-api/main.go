// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MacTheAnon/joco-exec/internal/config"
	httptransport "github.com/MacTheAnon/joco-exec/internal/http"
	"github.com/MacTheAnon/joco-exec/internal/infra"
	"github.com/MacTheAnon/joco-exec/internal/maps"
	"github.com/MacTheAnon/joco-exec/internal/modules/booking"
	"github.com/MacTheAnon/joco-exec/internal/modules/dispatch"
	"github.com/MacTheAnon/joco-exec/internal/modules/payment"
	"github.com/MacTheAnon/joco-exec/internal/modules/pricing"
	"github.com/MacTheAnon/joco-exec/internal/modules/reservation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("JOCO_FIREBASE_PROJECT_ID is required")
	}
	if cfg.Maps.APIKey == "" {
		log.Fatal("GOOGLE_MAPS_API_KEY is required")
	}
	if cfg.Square.Token == "" {
		log.Fatal("SQUARE_ACCESS_TOKEN is required")
	}

	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	amqpConn, amqpCh, err := infra.NewAMQPChannel(cfg.AMQP.URL)
	if err != nil {
		log.Fatalf("amqp init: %v", err)
	}
	defer amqpConn.Close()

	distanceSvc, err := maps.NewDistanceService(cfg.Maps.APIKey, cfg.Maps.Timeout)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}

	pricingStore := pricing.NewStore(dbPool)
	rates, err := pricingStore.LoadRates(ctx)
	if err != nil {
		log.Fatalf("load pricing rates: %v", err)
	}
	overrides, err := pricingStore.LoadOverrides(ctx)
	if err != nil {
		log.Fatalf("load seasonal overrides: %v", err)
	}
	pricingSvc := pricing.NewService(rates, overrides)

	reservationStore := reservation.NewStore(dbPool)
	reservationSvc := reservation.NewService(reservationStore)

	gateway := payment.NewGateway(cfg.Square.BaseURL, cfg.Square.Token, cfg.Square.Timeout,
		payment.NewRedisKeyRecorder(redisClient))

	notifier, err := dispatch.NewAMQPNotifier(amqpCh)
	if err != nil {
		log.Fatalf("dispatch notifier init: %v", err)
	}
	dispatchSvc := dispatch.NewService(
		dispatch.NewPostgresDirectory(dbPool),
		notifier,
		reservationSvc,
		dispatch.NewStore(redisClient),
		cfg.Dispatch,
	)

	bookingSvc := booking.NewService(reservationSvc, pricingSvc, gateway, dispatchSvc, distanceSvc, cfg.Dispatch.NotifyTimeout)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Booking:      bookingSvc,
		Reservations: reservationSvc,
		Dispatch:     dispatchSvc,
		Verifier:     verifier,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("joco-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
