package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"grateful-roasted/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	cobra.CheckErr(newCmd(&cfg).ExecuteContext(ctx))
}
