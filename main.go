// path: main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learnercloudtech/Karunya-Kripa/config"
	"github.com/learnercloudtech/Karunya-Kripa/controllers"
	"github.com/learnercloudtech/Karunya-Kripa/database"
	"github.com/learnercloudtech/Karunya-Kripa/geo"
	"github.com/learnercloudtech/Karunya-Kripa/logging"
	"github.com/learnercloudtech/Karunya-Kripa/metrics"
	"github.com/learnercloudtech/Karunya-Kripa/routes"
	"github.com/learnercloudtech/Karunya-Kripa/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "karunya",
	Short: "Karunya Kripa animal-welfare incident reporting",
	Long: `Karunya Kripa collects incident reports about animals in distress.

serve runs the report API; report files one incident through the intake
flow; cases and set-status work the admin side of a running API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report API server",
	Long: `Start the HTTP API.

Endpoints:
  POST  /api/reports              multipart report with media
  GET   /api/reports              list, newest first
  PATCH /api/reports/:id/status   case status
  POST  /api/volunteers           volunteer registration
  GET   /api/volunteers           list volunteers
  POST  /api/locate               label a coordinate pair
  GET   /uploads/*                stored media
  GET   /healthz, /metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a YAML config file")
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd, reportCmd, casesCmd, setStatusCmd, volunteerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(ctx context.Context, c *config.Config, log *zap.Logger) (database.Store, error) {
	switch c.Store.Driver {
	case "memory":
		log.Warn("using in-memory store; data is lost on exit")
		return database.NewMemStore(), nil
	default:
		m, err := database.Connect(ctx, c.Store.Mongo, log)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func nominatimConfig(c *config.Config) geo.NominatimConfig {
	return geo.NominatimConfig{
		BaseURL:      c.Geocoder.BaseURL,
		UserAgent:    c.Geocoder.UserAgent,
		ViewBox:      c.Geocoder.ViewBox,
		CountryCodes: c.Geocoder.CountryCodes,
		Language:     c.Geocoder.Language,
		MinInterval:  c.Geocoder.MinInterval,
		Timeout:      c.Geocoder.Timeout,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(cctx); err != nil {
			logger.Warn("store close", zap.Error(err))
		}
	}()

	media, err := storage.NewLocal(cfg.Server.UploadDir, cfg.Server.MaxMediaBytes, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	api := controllers.New(controllers.Deps{
		Reports:    store,
		Volunteers: store,
		Media:      media,
		Locator:    geo.NewNominatim(nominatimConfig(cfg), logger),
		Metrics:    m,
		PublicURL:  cfg.Server.PublicURL,
		Logger:     logger,
	})
	app := routes.NewApp(api, routes.Options{
		AllowOrigins: cfg.Server.AllowOrigins,
		UploadDir:    media.Dir(),
		BodyLimit:    cfg.Server.BodyLimit,
		Metrics:      m,
		Logger:       logger,
	})

	errc := make(chan error, 1)
	go func() {
		logger.Info("API listening", zap.String("addr", cfg.Server.Addr), zap.String("store", cfg.Store.Driver))
		errc <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
