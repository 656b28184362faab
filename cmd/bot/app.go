package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	discordui "github.com/brotherelric/discord-ui"
	"github.com/brotherelric/discord-ui/internal/config"
)

type App struct {
	config  *config.Config
	discord *discordgo.Session
	ui      *discordui.UI
	metrics *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	discord, err := NewDiscordSession(cfg)
	if err != nil {
		return nil, err
	}

	ui := discordui.New(discord, discordui.Options{
		AutoSync:           true,
		SyncDelay:          cfg.SyncDelay,
		DeleteUnused:       cfg.DeleteUnused,
		AutoDefer:          cfg.AutoDefer,
		AutoDeferEphemeral: cfg.AutoDeferEphemeral,
	})

	if err := RegisterCommands(ui, cfg); err != nil {
		return nil, err
	}

	app := &App{
		config:  cfg,
		discord: discord,
		ui:      ui,
	}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		app.metrics = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return app, nil
}

func (a *App) Run() error {
	if err := a.discord.Open(); err != nil {
		slog.Error("Failed to open discord session", "error", err)
		return err
	}

	if a.metrics != nil {
		go func() {
			slog.Info("Serving metrics", "addr", a.metrics.Addr)
			if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	slog.Info("Bot is online")
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down...")

	var errs []error
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.discord != nil {
		if err := a.discord.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
