package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gopower/adapters/api"
	"gopower/internal/config"
	"gopower/internal/container"
	"gopower/ui"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer appContainer.Shutdown(context.Background())

	if appConfig.Database.Enabled() {
		db, err := container.Connect(ctx, appConfig.Database)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := appContainer.InitWithDatabase(db); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	} else {
		log.Println("No DATABASE_URL configured, calculations are kept in memory")
	}

	server, err := ui.NewServer(appContainer.PowerService, ui.Options{
		GinMode:        appConfig.Server.GinMode,
		MetricsEnabled: appConfig.Metrics.Enabled,
		DefaultPower:   appConfig.Power.DefaultPower,
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	servers := []*http.Server{
		{Addr: ":" + appConfig.Server.Port, Handler: server.Handler()},
		{Addr: ":" + appConfig.Server.APIPort, Handler: api.NewRouter(appContainer.Calculator)},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Printf("Listening on %s (z_alpha=%.4f)", srv.Addr, appContainer.Calculator.ZAlpha())
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Shutdown of %s failed: %v", srv.Addr, err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		appContainer.Shutdown(context.Background())
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("Servers stopped")
}
