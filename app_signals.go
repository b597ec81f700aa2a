package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// setupSignalHandler returns a context cancelled on SIGINT or SIGTERM. The
// engine finishes its in-flight fetch before exiting; a second signal
// forces the exit.
func setupSignalHandler(logger *zap.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	log := logger.Sugar()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		log.Infow("Shutting down", "signal", sig.String())
		cancel()

		sig = <-sigCh
		log.Warnw("Forcing exit", "signal", sig.String())
		os.Exit(1)
	}()

	return ctx
}
