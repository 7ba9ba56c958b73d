package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"BlogPublisher/internal/app"
	"BlogPublisher/internal/config"
	"BlogPublisher/internal/logging"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file")
	once := pflag.Bool("once", false, "run a single publish cycle and exit")
	topic := pflag.String("topic", "", "topic for --once; random from the configured list when empty")
	serveOnly := pflag.Bool("serve", false, "serve HTTP without the recurring cycle")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *serveOnly {
		cfg.Scheduler.Disabled = true
	}
	logger, logCloser, err := logging.FromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *once {
		result, err := application.RunOnce(ctx, *topic)
		if err != nil {
			logger.Error("cycle failed", "error", err)
			application.Close()
			os.Exit(1)
		}
		fmt.Println(result.Article.Body)
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		application.Close()
		os.Exit(1)
	}
}
