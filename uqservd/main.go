// uqservd links IRC network services to an uplink.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aarondl/uqserv/config"
	"github.com/aarondl/uqserv/services"
)

func main() {
	configFile := flag.String("config", "uqserv.toml", "the configuration file")
	envFile := flag.String("env", "", "a .env file with overrides, ./.env is used if it exists")
	check := flag.Bool("check", false, "check the configuration and exit")
	flag.Parse()

	if err := run(*configFile, *envFile, *check); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configFile, envFile string, check bool) error {
	cfg := config.New().FromFile(configFile)

	var envFiles []string
	if len(envFile) > 0 {
		envFiles = append(envFiles, envFile)
	}
	if err := cfg.LoadEnv(envFiles...); err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}

	if !cfg.Validate() {
		cfg.DisplayErrors(logger)
		return services.ErrInvalidConfig
	}
	if check {
		logger.Info("Configuration is valid", "file", configFile)
		return nil
	}

	srv, err := services.New(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
