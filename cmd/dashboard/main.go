package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/internal/config"
	"github.com/jrsteele09/engine-dashboard/internal/logging"
	"github.com/jrsteele09/engine-dashboard/server"
	"github.com/jrsteele09/engine-dashboard/session"
	"github.com/jrsteele09/engine-dashboard/tokenstore"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return fmt.Errorf("config.New: %w", err)
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := tokenstore.New(ctx, c)
	if err != nil {
		return fmt.Errorf("tokenstore.New: %w", err)
	}
	defer closeStore(store)

	client := apiclient.New(c.GetAPIBaseURL(),
		apiclient.WithTimeout(c.GetAPITimeout()),
		apiclient.WithBatchConcurrency(c.GetCycleBatchConcurrency()),
	)
	sessions := session.NewManager(store, client, session.WithStoreTimeout(c.GetTokenStoreTimeout()))
	client.SetUnauthorizedHandler(sessions.ExpireToken)

	handler, err := server.New(c, sessions, client)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	go sessions.Restore(ctx)

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
	return shutdown(srv)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func closeStore(store tokenstore.Store) {
	closer, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Err(err).Msg("Failed to close token store")
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
