package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yarkm13/seviper/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(exitCodeConfigError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := newRootCommand(cfg, streams{
		in:             os.Stdin,
		out:            os.Stdout,
		errOut:         os.Stderr,
		passwordReader: terminalPasswordReader(),
	})
	code := execute(ctx, cmd, os.Stderr)
	stop()
	os.Exit(code)
}
