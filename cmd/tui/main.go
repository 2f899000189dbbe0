package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/backend"
	"github.com/maheshrc27/postpilot/internal/logging"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/session"
	"github.com/maheshrc27/postpilot/internal/tui/home"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadConfig()

	username := flag.String("user", cfg.Viewer.Username, "viewer username")
	userID := flag.String("user-id", cfg.Viewer.UserID, "viewer user id")
	browser := flag.String("browser", cfg.BrowserCookies, "browser to borrow the backend session from (chrome, firefox, any)")
	flag.Parse()

	if err := run(cfg, models.ViewerIdentity{Username: *username, UserID: *userID}, *browser); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, viewer models.ViewerIdentity, browser string) error {
	logger, logFile, err := logging.OpenFileLogger(logging.FileOptions{
		Path:    cfg.Log.File,
		MaxSize: cfg.Log.MaxSize,
		Backups: cfg.Log.Backups,
		Debug:   cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logFile.Close()
	slog.SetDefault(logger)
	slog.Info("starting terminal view", slog.String("log", cfg.Log.File))

	if viewer.Username == "" && viewer.UserID == "" {
		return fmt.Errorf("no viewer configured, set VIEWER_USERNAME or pass -user")
	}

	loc, _, err := service.ResolveLocation(cfg.Viewer.Timezone)
	if err != nil {
		return err
	}

	// The terminal has no database by default; keep preferences in a file.
	prefsCfg := cfg.Preferences
	if os.Getenv("PREFERENCES_DRIVER") == "" {
		prefsCfg.Driver = repository.DriverFile
	}
	prefs, closer, err := repository.OpenPreferences(prefsCfg)
	if err != nil {
		return fmt.Errorf("open preferences: %w", err)
	}
	defer closer.Close()

	client := backend.NewClient(backend.Options{
		BaseURL:   cfg.Backend.URL,
		Timeout:   cfg.Backend.Timeout,
		RateLimit: cfg.Backend.RateLimit,
	})
	if browser != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		cookies, err := session.LoadBrowserCookies(ctx, cfg.Backend.URL, browser, cfg.Backend.CookieNames)
		cancel()
		if err != nil {
			return fmt.Errorf("load browser session: %w", err)
		}
		client = client.WithCookies(cookies)
	} else {
		client = client.WithCookies(envCookies(cfg.Backend.CookieNames))
	}

	view := service.NewHomeView(service.HomeOptions{
		Viewer:   viewer,
		API:      client,
		Sections: service.NewSectionService(prefs),
		Location: loc,
	})

	p := tea.NewProgram(home.NewModel(view, home.Options{Location: loc}), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal view: %w", err)
	}
	return nil
}

// envCookies reads backend cookies from POSTPILOT_COOKIE_<NAME>.
func envCookies(names []string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, name := range names {
		if value := os.Getenv("POSTPILOT_COOKIE_" + strings.ToUpper(name)); value != "" {
			cookies = append(cookies, &http.Cookie{Name: name, Value: value})
		}
	}
	return cookies
}
