// Command edutrack manages school records from the command line and serves
// the HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alvinp540/edutrack/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.Options{}, os.Args[1:])
	stop()
	os.Exit(code)
}
