package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/lixenwraith/collide/config"
)

const (
	flagConfig   = "config"
	flagEnv      = "env"
	flagSeed     = "seed"
	flagCount    = "count"
	flagLogLevel = "log-level"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "collide: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "collide"
	app.Usage = "event-driven hard disk collision simulator"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   flagConfig + ", c",
			Usage:  "scene file (.toml, .yaml)",
			EnvVar: config.EnvPrefix + "CONFIG",
		},
		cli.StringFlag{
			Name:  flagEnv,
			Value: ".env",
			Usage: "dotenv file applied before COLLIDE_* overrides",
		},
		cli.Uint64Flag{
			Name:  flagSeed,
			Usage: "random scene seed",
		},
		cli.IntFlag{
			Name:  flagCount + ", n",
			Usage: "number of random particles",
		},
		cli.StringFlag{
			Name:  flagLogLevel,
			Usage: "debug, info, warn, error",
		},
	}

	app.Commands = []cli.Command{
		runCommand(),
		viewCommand(),
		serveCommand(),
	}
	return app
}

// loadConfig resolves the file, then the environment, then explicit flags
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.GlobalString(flagConfig))
	if err != nil {
		return cfg, err
	}
	if err := config.LoadEnv(&cfg, c.GlobalString(flagEnv)); err != nil {
		return cfg, err
	}
	if c.GlobalIsSet(flagSeed) {
		cfg.Seed = c.GlobalUint64(flagSeed)
	}
	if c.GlobalIsSet(flagCount) {
		cfg.Count = c.GlobalInt(flagCount)
		cfg.Particles = nil
	}
	if c.GlobalIsSet(flagLogLevel) {
		cfg.LogLevel = c.GlobalString(flagLogLevel)
	}
	return cfg, cfg.Validate()
}
