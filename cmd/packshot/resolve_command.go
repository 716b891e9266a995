package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"packshot/internal/idcache"
	"packshot/internal/identifier"
	"packshot/internal/logging"
	"packshot/internal/resolve"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var skipCache bool

	cmd := &cobra.Command{
		Use:   "resolve <gtin>",
		Short: "Resolve a GTIN to its ASIN mappings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			gtin, err := identifier.Normalize(args[0], 12)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			var cache *idcache.Cache
			if cfg.Resolver.CacheEnabled && !skipCache {
				if cache, err = idcache.Open(cfg.Resolver.CachePath); err != nil {
					logger.Warn("asin cache unavailable; resolving without cache", logging.Error(err))
					cache = nil
				} else {
					defer cache.Close()
				}
			}

			resolver, err := resolve.New(resolve.Options{
				BaseURL:       cfg.Portal.BaseURL,
				Timeout:       time.Duration(cfg.Portal.RequestTimeout) * time.Second,
				RetryAttempts: cfg.Portal.RetryAttempts,
				RetryBackoff:  time.Duration(cfg.Portal.RetryBackoff) * time.Second,
				Cache:         cache,
			}, logger)
			if err != nil {
				return err
			}

			asins, err := resolver.ASINs(cmd.Context(), gtin)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(asins) == 0 {
				fmt.Fprintf(out, "No ASIN mappings for GTIN %s\n", gtin)
				return nil
			}
			for _, asin := range asins {
				fmt.Fprintln(out, asin)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCache, "no-cache", false, "Bypass the local ASIN cache")
	return cmd
}
