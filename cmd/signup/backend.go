package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/backend"
	"github.com/goliatone/go-signup/config"
)

func backendCmd(flags *globalFlags) *cobra.Command {
	var (
		addr string
		cost int
	)

	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Run the reference account backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			if addr != "" {
				cfg.BackendAddr = addr
			}

			logger := newLogger(cfg.Debug)

			accounts, closeDB, err := openAccounts(cmd.Context(), cfg, logger, cost)
			if err != nil {
				return err
			}
			defer closeDB()

			srv := backend.NewServer(accounts,
				backend.WithServerLogger(logger),
				backend.WithServerDebug(cfg.Debug),
			)
			srv.StoreUserPath = cfg.StoreUserPath
			srv.SignInPath = cfg.SignInPath

			app := fiber.New(fiber.Config{
				AppName:               appName + "-backend",
				DisableStartupMessage: !cfg.Debug,
			})
			srv.Register(app)

			return listen(cmd.Context(), cfg.BackendAddr, logger,
				func() error { return app.Listen(cfg.BackendAddr) },
				app.ShutdownWithContext,
			)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SIGNUP_BACKEND_ADDR)")
	cmd.Flags().IntVar(&cost, "bcrypt-cost", 0, "Password hashing cost (default bcrypt.DefaultCost)")

	return cmd
}

// openAccounts opens the configured database and returns the accounts
// service on top of it. The returned func closes the database.
func openAccounts(ctx context.Context, cfg config.Config, logger signup.Logger, cost int) (*backend.Accounts, func(), error) {
	if cfg.SigningKey == "" {
		return nil, nil, fmt.Errorf("SIGNUP_SIGNING_KEY is required to sign session tokens")
	}

	db, err := backend.OpenSQLite(cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	store := backend.NewStore(db, backend.WithHashid(cfg.UseHashid))
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	accounts := backend.NewAccounts(store,
		backend.NewTokenMinter([]byte(cfg.SigningKey), cfg.Issuer, cfg.TokenTTL),
		backend.WithAccountsLogger(logger),
		backend.WithBcryptCost(cost),
	)

	return accounts, func() { _ = db.Close() }, nil
}
