package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sqve/spaces/cmd/spaces/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := commands.NewRootCommand().ExecuteContext(ctx)
	stop()

	commands.ReportError(err)
	os.Exit(commands.ExitCode(err))
}
