package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pf-trader/internal/cli"
	"pf-trader/internal/config"
	logger "pf-trader/internal/logger"
)

func main() {
	// LOG_LEVEL may come from .env; a broken file is reported again by the command.
	_ = config.LoadDotEnv()
	logger.InitLogger()
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx, os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		zap.L().Debug("command failed", zap.Error(err))
	}
	code := cli.ExitCode(err)
	if code != 0 {
		stop()
		_ = zap.L().Sync()
		os.Exit(code)
	}
}
