// Package main provides the signup binary. It can drive a registration
// from the command line, serve the registration form, or run the
// reference account backend.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/client"
	"github.com/goliatone/go-signup/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "signup"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	baseURL string
	debug   bool
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Account registration workflow",
		Long: `Signup creates an account, signs into it and redirects home.

It provides:
- register: run one registration against a backend
- serve: serve the registration form
- backend: run the reference account backend`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "Backend base URL (overrides SIGNUP_BASE_URL)")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Dump payloads and state changes")

	cmd.AddCommand(registerCmd(flags))
	cmd.AddCommand(serveCmd(flags))
	cmd.AddCommand(backendCmd(flags))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// loadConfig reads the environment and applies the global flags on top.
func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
	}

	if flags.debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// tokenVerifier picks a JWKS verifier when configured, falling back to
// the shared signing key. The returned func releases background work.
func tokenVerifier(cfg config.Config) (client.TokenVerifier, func(), error) {
	switch {
	case cfg.JWKSURL != "":
		return client.NewJWKSVerifier(cfg.JWKSURL, time.Hour)
	case cfg.SigningKey != "":
		return client.NewHMACVerifier([]byte(cfg.SigningKey)), func() {}, nil
	}
	return nil, func() {}, nil
}

func newLogger(debug bool) signup.Logger {
	if debug {
		return signup.DefaultLogger()
	}
	return quietLogger{signup.DefaultLogger()}
}

// quietLogger drops debug output.
type quietLogger struct {
	signup.Logger
}

func (quietLogger) Debug(string, ...any) {}
