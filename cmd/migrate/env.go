package main

import (
	"lms-commerce/internal/config"
	"lms-commerce/internal/db"
	"lms-commerce/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type env struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

func withPool(c *cli.Context, fn func(*env) error) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	logger := logging.New("migrate", cfg.LogLevel, cfg.LogFormat)
	pool, err := db.Connect(c.Context, cfg.DBConnString)
	if err != nil {
		return pkgerrors.Wrap(err, "connect db")
	}
	defer pool.Close()
	return fn(&env{pool: pool, logger: logger})
}
