package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/client"
	"github.com/goliatone/go-signup/metrics"
	"github.com/goliatone/go-signup/web"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr     string
		embedded bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the registration form",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			if addr != "" {
				cfg.ListenAddr = addr
			}

			logger := newLogger(cfg.Debug)

			verifier, release, err := tokenVerifier(cfg)
			if err != nil {
				return err
			}
			defer release()

			clientOpts := []client.Option{client.WithLogger(logger)}
			if verifier != nil {
				clientOpts = append(clientOpts, client.WithTokenVerifier(verifier))
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())

			sink, err := metrics.NewSink(reg, "signup")
			if err != nil {
				return err
			}

			var (
				creator signup.AccountCreator = client.NewAccountClient(cfg.Client(), clientOpts...)
				signer  signup.SignInProvider = client.NewCredentialsClient(cfg.Client(), clientOpts...)
			)

			if embedded {
				accounts, closeDB, err := openAccounts(cmd.Context(), cfg, logger, 0)
				if err != nil {
					return err
				}
				defer closeDB()
				creator = accounts
				signer = signup.NewAuthenticatorSignIn(accounts, logger)
			}

			handler := web.NewHandler(
				creator,
				signer,
				web.WithLogger(logger),
				web.WithDebug(cfg.Debug),
				web.WithRoutes(web.Routes{Home: cfg.HomePath, SignIn: cfg.SignInLink}),
				web.WithSessionCookie("session", cfg.TokenTTL),
				web.WithControllerOptions(signup.WithActivitySink(sink)),
			)

			srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
				app := router.DefaultFiberOptions(fiber.New(fiber.Config{
					AppName:               appName,
					Views:                 web.NewEngine(),
					PassLocalsToViews:     true,
					DisableStartupMessage: !cfg.Debug,
				}))
				app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
				return app
			})

			srv.Router().Use(mflash.New(mflash.ConfigDefault))
			web.RegisterRoutes(srv.Router(), handler)

			return listen(cmd.Context(), cfg.ListenAddr, logger,
				func() error { return srv.Serve(cfg.ListenAddr) },
				srv.Shutdown,
			)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SIGNUP_LISTEN_ADDR)")
	cmd.Flags().BoolVar(&embedded, "embedded", false, "Store accounts in process instead of calling a backend")

	return cmd
}

// listen runs serve until ctx is cancelled or a signal arrives, then
// calls shutdown.
func listen(ctx context.Context, addr string, logger signup.Logger, serve func() error, shutdown func(context.Context) error) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", addr)
		errc <- serve()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdown(sctx)
	}
}
