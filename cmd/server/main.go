package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/api"
	"github.com/maheshrc27/postpilot/internal/backend"
	"github.com/maheshrc27/postpilot/internal/logging"
	"github.com/maheshrc27/postpilot/internal/metrics"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	slog.SetDefault(logging.NewConsoleLogger(os.Stderr, cfg.Debug))

	if cfg.SecretKey == "" && cfg.Viewer.Username == "" && cfg.Viewer.UserID == "" {
		log.Fatal("Either SECRET_KEY or VIEWER_USERNAME/VIEWER_USER_ID must be set")
	}

	loc, tzName, err := service.ResolveLocation(cfg.Viewer.Timezone)
	if err != nil {
		log.Fatalf("Invalid VIEWER_TIMEZONE: %v", err)
	}

	prefs, closer, err := repository.OpenPreferences(cfg.Preferences)
	if err != nil {
		log.Fatalf("Failed to open preferences store: %v", err)
	}
	defer closeStore(closer)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	client := backend.NewClient(backend.Options{
		BaseURL:   cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
		Metrics:   collector,
	})

	sectionService := service.NewSectionService(prefs)
	views := service.NewViewRegistry(sectionService, collector).Limit(cfg.MaxViews, cfg.ViewIdle)

	app := api.NewServer(*cfg, api.Deps{
		Views:     views,
		Backend:   client,
		Location:  loc,
		Metrics:   metrics.Handler(reg),
		AccessLog: true,
	})

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("Server is running",
		slog.String("addr", cfg.ListenAddr),
		slog.String("backend", cfg.Backend.URL),
		slog.String("preferences", cfg.Preferences.Driver),
		slog.String("timezone", tzName))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}
	log.Println("Server shutdown complete.")
}

func closeStore(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Error("Failed to close preferences store", slog.Any("error", err))
	}
}
