package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli"

	"github.com/lixenwraith/collide/server"
)

func serveCommand() cli.Command {
	return cli.Command{
		Name:  "serve",
		Usage: "serve the run-control HTTP API",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "listen, l",
				Usage: "listen address (overrides config)",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	logger, _ := setupLogging(cfg.Level(), false)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, logger).ListenAndServe(ctx)
}
