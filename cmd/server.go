package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/fieldbook/internal/auth"
	"github.com/example/fieldbook/internal/booking"
	"github.com/example/fieldbook/internal/config"
	"github.com/example/fieldbook/internal/db"
	"github.com/example/fieldbook/internal/logging"
	"github.com/example/fieldbook/internal/migrate"
	"github.com/example/fieldbook/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the booking web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
				logger.Info("migrations applied")
			}

			authStore := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			repo := booking.NewRepo(d)
			clock := booking.RealClock{}

			availability := &booking.Availability{
				Store:       repo,
				OpenHour:    cfg.OpenHour,
				CloseHour:   cfg.CloseHour,
				HorizonDays: cfg.HorizonDays,
				Location:    cfg.Location,
			}
			admission := &booking.Admission{
				Store:   repo,
				Clock:   clock,
				MaxSpan: cfg.MaxSpan,
			}

			logger.Info("starting server",
				zap.String("addr", cfg.ListenAddr),
				zap.Int("open_hour", cfg.OpenHour),
				zap.Int("close_hour", cfg.CloseHour),
				zap.Int("horizon_days", cfg.HorizonDays),
				zap.String("time_zone", cfg.TimeZone),
			)

			ws := &web.Server{
				Auth:         authStore,
				Availability: availability,
				Admission:    admission,
				Clock:        clock,
				Location:     cfg.Location,
				Log:          logger,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes(), logger)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
