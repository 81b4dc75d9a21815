package main

import (
	"os"

	"lms-commerce/internal/migrate"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "migrate",
		Usage: "manage the database schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					return withPool(c, func(env *env) error {
						if err := migrate.Apply(c.Context, env.pool); err != nil {
							return err
						}
						env.logger.Info("migrations applied")
						return nil
					})
				},
			},
			{
				Name:  "down",
				Usage: "revert migrations",
				Flags: []cli.Flag{&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to revert"}},
				Action: func(c *cli.Context) error {
					return withPool(c, func(env *env) error {
						steps := c.Int("steps")
						if err := migrate.Rollback(c.Context, env.pool, steps); err != nil {
							return err
						}
						env.logger.WithField("steps", steps).Info("migrations reverted")
						return nil
					})
				},
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: func(c *cli.Context) error {
					return withPool(c, func(env *env) error {
						v, dirty, err := migrate.Version(c.Context, env.pool)
						if err != nil {
							return err
						}
						env.logger.WithFields(logrus.Fields{"version": v, "dirty": dirty}).Info("schema version")
						return nil
					})
				},
			},
		},
		DefaultCommand: "up",
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("migrate failed")
	}
}
