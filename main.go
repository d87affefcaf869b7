package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "combatai",
		Usage: "judge fictional fights with a language model",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Usage:   "path to a YAML config file",
						Sources: cli.EnvVars("COMBATAI_CONFIG"),
					},
					&cli.StringFlag{
						Name:    "env-file",
						Value:   ".env",
						Usage:   "path to a .env file, ignored when missing",
						Sources: cli.EnvVars("COMBATAI_ENV_FILE"),
					},
					&cli.StringFlag{
						Name:    "port",
						Usage:   "listen port, overrides server.port",
						Sources: cli.EnvVars("COMBATAI_PORT"),
					},
				},
				Action: runServer,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("combatai exited", "error", err)
		os.Exit(1)
	}
}
