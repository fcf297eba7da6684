package main

import (
	"context"
	"log/slog"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("failed to execute command", "error", err)
		os.Exit(1)
	}
}
