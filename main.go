package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"

	"livpconv/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	opts := logger.DefaultOptions()
	opts.Output = out
	opts.TimeFormat = "15:04:05"
	console := logger.NewConsole(opts)

	cfg, err := ParseConfig(args, console)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		os.Stderr.WriteString("Configuration error: " + err.Error() + "\n")
		return exitFailure
	}
	if cfg.ShowVersion {
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	console = cfg.NewConsole(out)
	timer := console.StartTimer("Batch")
	code := NewRunner(cfg, console).Run(ctx)
	timer.End()
	return code
}
