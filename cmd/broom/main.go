package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"broom/internal/cli"
)

func main() {
	// SIGINT/SIGTERM stop the run between matches.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := cli.NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "broom: %v\n", err)
	}

	code := cli.ExitCode(err)
	cancel()
	os.Exit(code)
}
