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
	"github.com/jrsteele09/go-oauth20-server/instrumentation"
	"github.com/jrsteele09/go-oauth20-server/internal/config"
	"github.com/jrsteele09/go-oauth20-server/server"
	"github.com/jrsteele09/go-oauth20-server/storage"
	"github.com/jrsteele09/go-oauth20-server/storage/memory"
	"github.com/jrsteele09/go-oauth20-server/storage/redisstore"
	"github.com/jrsteele09/go-oauth20-server/users"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errPanicRecovered = errors.New("panic recovered")

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}
	configureLogging(config.New())

	for {
		err := run()
		if err == nil {
			break
		}
		if !errors.Is(err, errPanicRecovered) {
			log.Fatal().Err(err).Msg("Error running server")
		}
		log.Error().Err(err).Msg("Restarting server")
		time.Sleep(1 * time.Second)
	}
	log.Info().Msg("Server stopped")
}

func configureLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errPanicRecovered
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	store, err := newStorage(context.Background(), c)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Err(err).Msg("failed to close storage")
		}
	}()

	metrics := instrumentation.New(instrumentation.Config{ServiceName: c.GetAppName(), IncludeRuntimeMetrics: true})
	handler, err := server.New(c, store, users.NewInMemoryRepo(), metrics)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(srv)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	returnError = shutdown(srv)
	return returnError
}

// newStorage builds the backend selected by STORAGE_BACKEND.
func newStorage(ctx context.Context, c config.Config) (storage.Storage, error) {
	switch backend := c.GetStorageBackend(); backend {
	case config.StorageBackendMemory:
		log.Warn().Msg("using in-memory storage, all data is lost on restart")
		return memory.New(), nil
	case config.StorageBackendRedis:
		store, err := redisstore.NewRedisStorage(ctx, redisstore.Config{
			Addr:        c.GetRedisAddr(),
			Password:    c.GetRedisPassword(),
			DB:          c.GetRedisDB(),
			KeyPrefix:   c.GetRedisKeyPrefix(),
			AuthCodeTTL: c.GetAuthCodeTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", c.GetRedisAddr(), err)
		}
		log.Info().Str("addr", c.GetRedisAddr()).Msg("using redis storage")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
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
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
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
