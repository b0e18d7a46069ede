// ./main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/veyraqa/lexprobe/cmd"
)

// main is the entry point for the lexprobe CLI.
func main() {
	// A SIGINT/SIGTERM cancels the run context so the suite can close its
	// browser and still write a report for what already ran.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
