// Command bota manages buckets and objects in S3 compatible storage.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/CESNET/bota/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewApp(version).Run(ctx, os.Args[1:]); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "> [ERROR] %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
