package main

import (
	"os"

	"lms-commerce/internal/config"
	"lms-commerce/internal/db"
	"lms-commerce/internal/logging"
	"lms-commerce/internal/seed"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "seed",
		Usage: "load demo courses, store items and a demo user",
		Action: func(c *cli.Context) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			logger := logging.New("seed", cfg.LogLevel, cfg.LogFormat)

			pool, err := db.Connect(c.Context, cfg.DBConnString)
			if err != nil {
				return pkgerrors.Wrap(err, "connect db")
			}
			defer pool.Close()

			return seed.Apply(c.Context, pool, logger)
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("seed failed")
	}
}
