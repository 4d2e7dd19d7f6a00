package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Simplici0/koshtorys/internal/catalog"
	"github.com/Simplici0/koshtorys/internal/rates"
)

var (
	rateURL     string
	rateNoCache bool
)

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Exchange rate used to convert stone prices",
}

var rateRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the official UAH/USD rate and store it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		url := cfg.RateURL
		if rateURL != "" {
			url = rateURL
		}
		opts := []rates.Option{rates.WithURL(url), rates.WithLogger(logger)}
		if cfg.RedisURL != "" {
			ropts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return eris.Wrap(err, "parse REDIS_URL")
			}
			rdb := redis.NewClient(ropts)
			defer rdb.Close()
			opts = append(opts, rates.WithCache(rdb, cfg.RateCacheTTL))
		}
		client := rates.NewClient(opts...)
		if rateNoCache {
			if err := client.Invalidate(ctx); err != nil {
				logger.Warn().Err(err).Msg("invalidate rate cache")
			}
		}

		rate, err := rates.Refresh(ctx, client, catalog.NewStore(database))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "USD %s (%s)\n", rate.Value.String(), rate.Date)
		return nil
	},
}

var rateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored rate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		settings, err := catalog.NewStore(database).Settings(cmd.Context())
		if err != nil {
			return err
		}
		updated := "never"
		if !settings.RateUpdatedAt.IsZero() {
			updated = settings.RateUpdatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "USD %s (updated %s)\n", settings.ExchangeRate.String(), updated)
		return nil
	},
}

func init() {
	rateRefreshCmd.Flags().StringVar(&rateURL, "url", "", "rate feed URL (default from RATE_URL)")
	rateRefreshCmd.Flags().BoolVar(&rateNoCache, "no-cache", false, "ignore a cached rate")

	rateCmd.AddCommand(rateRefreshCmd)
	rateCmd.AddCommand(rateShowCmd)
}
