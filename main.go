package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fieldmap.dev/fieldmapd/cli"
	"fieldmap.dev/fieldmapd/params"
	"fieldmap.dev/fieldmapd/utils"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelError)
	cli.Handle()

	app, err := NewApp(params.DefaultRoot())
	utils.Check(err)
	app.Settings.SetLogLevel()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx)
	utils.Loge(err)
}
