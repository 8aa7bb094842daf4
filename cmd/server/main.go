package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/connectspace/connectspace-api/auth"
	"github.com/connectspace/connectspace-api/internal/config"
	"github.com/connectspace/connectspace-api/server"
	"github.com/connectspace/connectspace-api/storage"
	"github.com/connectspace/connectspace-api/token"
	"github.com/connectspace/connectspace-api/users/userstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "connectspace",
		Short:         "ConnectSpace API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending SQL migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context())
			},
		},
	)
	return rootCmd
}

func loadConfig() (config.Config, error) {
	c, err := config.New()
	if err != nil {
		return nil, err
	}
	setupLogging(c)
	if err := c.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, err
	}
	return c, nil
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
}

func migrate(ctx context.Context) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	switch c.GetStoreDriver() {
	case config.StoreDriverSQLite, config.StoreDriverPostgres:
	default:
		log.Info().Str("driver", c.GetStoreDriver()).Msg("Nothing to migrate")
		return nil
	}
	store, err := userstore.OpenSQL(ctx, c)
	if err != nil {
		log.Error().Err(err).Msg("Migration failed")
		return err
	}
	log.Info().Msg("Migrations applied")
	return store.Close()
}

func serve(ctx context.Context) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := loadConfig()
	if err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	handler, cleanup, err := buildServer(ctx, c)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start")
		return err
	}
	defer cleanup()

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	returnError = shutdown(httpServer)
	log.Info().Msg("Server stopped")
	return returnError
}

func buildServer(ctx context.Context, c config.Config) (http.Handler, func(), error) {
	repo, err := userstore.Open(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := repo.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close user store")
		}
	}

	tokens, err := token.New(c.GetJWTSecret(),
		token.WithRefreshSecret(c.GetJWTRefreshSecret()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
		token.WithIssuer(c.GetTokenIssuer()),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	authService, err := auth.NewService(repo, tokens)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	store, err := storage.NewDiskStore(c.GetUploadFolder(), server.RouteUploadsPrefix)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var options []server.Option
	if c.GetOIDCEnabled() {
		oidcConfig, err := server.NewOidcConfig(ctx, c)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		options = append(options, server.WithOIDC(oidcConfig))
	}

	s, err := server.New(c, authService, tokens, store, options...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return s, cleanup, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
