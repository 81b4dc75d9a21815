package main

import (
	"fmt"
	"os"
	"time"

	"lms-commerce/internal/config"
	"lms-commerce/internal/db"
	"lms-commerce/internal/importer"
	"lms-commerce/internal/logging"
	catalogrepo "lms-commerce/internal/repository/catalog"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "importer",
		Usage: "upsert courses, lectures and store items from a catalog CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "path to the catalog CSV"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("import failed")
	}
}

func run(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	logger := logging.New("importer", cfg.LogLevel, cfg.LogFormat)

	f, err := os.Open(c.String("file"))
	if err != nil {
		return pkgerrors.Wrap(err, "open file")
	}
	defer f.Close()

	pool, err := db.Connect(c.Context, cfg.DBConnString)
	if err != nil {
		return pkgerrors.Wrap(err, "connect db")
	}
	defer pool.Close()

	start := time.Now()
	res, err := importer.NewCSVImporter(f, catalogrepo.NewPostgres(pool, logger), logger).Run(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d catalog items (%d courses, %d store items, %d lectures) in %s\n",
		res.Imported(), res.Courses, res.StoreItems, res.Lectures, time.Since(start).Truncate(time.Millisecond))
	return nil
}
