package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/eringen/texted"
)

func runServe(configPath string, verbose bool, logFormat string) error {
	cfg, err := texted.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logFormat == "" {
		logFormat = cfg.Log.Format
	}
	setupLogging(levelFor(verbose, cfg.Log.Level), logFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := texted.New(cfg, texted.DefaultViews())
	defer app.Close()
	return app.Run(ctx)
}
