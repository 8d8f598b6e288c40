package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/example/fieldbook/internal/auth"
	"github.com/example/fieldbook/internal/booking"
	"github.com/example/fieldbook/internal/config"
	"github.com/example/fieldbook/internal/db"
	"github.com/example/fieldbook/internal/migrate"
	"github.com/spf13/cobra"
)

// Demo fixtures: three users and three bookings on tomorrow's calendar day.
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample users and bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := migrate.Up(ctx, d); err != nil {
				return err
			}

			authStore := auth.NewStore(d, cfg.CookieHashKey, cfg.CookieBlockKey)
			users := []struct {
				first, last, email, password string
			}{
				{"José", "Alvarado", "jose@example.com", "Password1"},
				{"María", "Castro", "maria@example.com", "Password2"},
				{"Carlos", "Méndez", "carlos@example.com", "Password3"},
			}
			ids := make([]int64, len(users))
			for i, u := range users {
				taken, err := authStore.EmailTaken(ctx, u.email)
				if err != nil {
					return err
				}
				if !taken {
					if err := authStore.CreateUser(ctx, u.first, u.last, u.email, u.password); err != nil {
						return err
					}
				}
				if err := d.QueryRow(ctx, `SELECT id FROM users WHERE email=$1`, u.email).Scan(&ids[i]); err != nil {
					return err
				}
			}

			repo := booking.NewRepo(d)
			now := time.Now().In(cfg.Location)
			y, m, day := now.AddDate(0, 0, 1).Date()
			slot := func(h, min, durMin int) (time.Time, time.Time) {
				start := time.Date(y, m, day, h, min, 0, 0, cfg.Location)
				return start, start.Add(time.Duration(durMin) * time.Minute)
			}

			starts := [3][3]int{{10, 0, 30}, {11, 0, 15}, {14, 0, 60}}
			for i, s := range starts {
				start, end := slot(s[0], s[1], s[2])
				if _, err := repo.Insert(ctx, ids[i], start, end); err != nil {
					if errors.Is(err, booking.ErrConflict) {
						continue // already seeded
					}
					return err
				}
			}

			fmt.Fprintln(os.Stdout, "Sample data inserted.")
			return nil
		},
	}
}
