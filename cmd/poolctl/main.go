package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wifi-voucher/internal/cli/poolctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := poolctl.NewCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
