package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantumauth-io/quantum-go-utils/log"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error("ticker-tool failed", "error", err)
		stop()
		os.Exit(1)
	}
}
