package main

import (
	"database/sql"
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Simplici0/koshtorys/internal/config"
	"github.com/Simplici0/koshtorys/internal/db"
	"github.com/Simplici0/koshtorys/internal/logging"
	"github.com/Simplici0/koshtorys/internal/migrations"
)

var (
	cfg    config.Config
	logger zerolog.Logger

	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "koshtorys",
	Short: "Price wedding ring pairs and print quote sheets",
	Long: `koshtorys prices a woman's and a man's ring against the catalog and
renders the one-page quote sheet without going through the web form.

Examples:
  koshtorys seed
  koshtorys rate refresh
  koshtorys render --quote pair.yaml --out koshtorys.pdf`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if dbPath != "" {
			c.DBPath = dbPath
		}
		level := c.LogLevel
		if verbose {
			level = "debug"
		}
		cfg = c
		logger = logging.NewWithWriter(cmd.ErrOrStderr(), c.LogFormat, level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default from DB_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(renderCmd)
}

// openDatabase opens the configured database and brings its schema up to date.
func openDatabase() (*sql.DB, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(database); err != nil {
		database.Close()
		return nil, eris.Wrap(err, "migrate database")
	}
	return database, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
