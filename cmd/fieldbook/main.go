// Command fieldbook manages accounts and families with custom fields.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mesh-intelligence/fieldbook/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
