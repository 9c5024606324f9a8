package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"tcp-user-service/cmd/api/app"
	"tcp-user-service/cmd/api/server"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "application exited with error: %v\n", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Usage:   "directory holding app.env",
		Value:   ".",
		EnvVars: []string{"CONFIG_PATH"},
	}

	return &cli.App{
		Name:   "tcp-user-service",
		Usage:  "user records over a raw TCP socket",
		Flags:  []cli.Flag{configFlag},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "create the schema and accept connections",
				Flags:  []cli.Flag{configFlag},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the users table and exit",
				Flags:  []cli.Flag{configFlag},
				Action: migrate,
			},
		},
	}
}

func serve(c *cli.Context) error {
	a, err := app.New(c.String("config"))
	if err != nil {
		return err
	}

	ctx, stop := server.WithSignal(c.Context)
	defer stop()

	return a.Run(ctx)
}

func migrate(c *cli.Context) error {
	a, err := app.New(c.String("config"))
	if err != nil {
		return err
	}

	return a.Migrate(c.Context)
}
