package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/activitymap"
	"github.com/goliatone/go-signup/client"
	"github.com/goliatone/go-signup/metrics"
)

func registerCmd(flags *globalFlags) *cobra.Command {
	var (
		input  signup.RegistrationInput
		events bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

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

			sink, err := metrics.NewSink(prometheus.NewRegistry(), "signup")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			nav := &printNavigator{out: out}

			sinks := signup.MultiActivitySink{sink}
			if events {
				sinks = append(sinks, activitymap.NewWriter(cmd.ErrOrStderr()))
			}

			ctrl := signup.NewController(
				client.NewAccountClient(cfg.Client(), clientOpts...),
				client.NewCredentialsClient(cfg.Client(), clientOpts...),
				nav,
				signup.WithLogger(logger),
				signup.WithHomePath(cfg.HomePath),
				signup.WithDebug(cfg.Debug),
				signup.WithActivitySink(signup.ActivitySinkFunc(func(ctx context.Context, event signup.ActivityEvent) error {
					if event.EventType == signup.ActivityEventStateChanged {
						fmt.Fprintf(out, "%s\n", event.ToState.ButtonLabel())
					}
					return sinks.Record(ctx, event)
				})),
			)

			outcome, err := ctrl.Submit(ctx, input)
			if err != nil {
				view := ctrl.View()
				if view.InvalidInput {
					return fmt.Errorf("%s", signup.MessageInvalidInput)
				}
				if view.ShowBanner {
					fmt.Fprintf(out, "%s: %s\n", view.BannerTitle, view.Message)
				}
				return err
			}

			fmt.Fprintf(out, "registered %s (submission %s)\n", input.Email, outcome.SubmissionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Username, "username", "", "Account username")
	cmd.Flags().StringVar(&input.Email, "email", "", "Account email address")
	cmd.Flags().StringVar(&input.Password, "password", "", "Account password")
	cmd.Flags().BoolVar(&events, "events", false, "Write activity events as JSON lines to stderr")

	return cmd
}

// printNavigator reports navigation instead of performing it.
type printNavigator struct {
	out io.Writer
}

func (n *printNavigator) Navigate(_ context.Context, path string) error {
	_, err := fmt.Fprintf(n.out, "navigate %s\n", path)
	return err
}
