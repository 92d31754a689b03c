// Package commands implements the wpls CLI: browse, export, and proxy
// paginated listings of a WordPress site from the terminal.
package commands

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/wpbrowse/wp-listing-client/pkg/listing"
	"github.com/wpbrowse/wp-listing-client/pkg/logging"
)

var (
	siteURL      string
	resourceType string
	redisAddr    string
	userAgent    string
	logLevel     string
	pretty       bool

	baseCfg listing.Config
)

func Execute() error {
	root := &cobra.Command{
		Use:   "wpls",
		Short: "Browse and export WordPress REST listings",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(logging.Config{
				Level:  logging.LogLevel(logLevel),
				Pretty: pretty,
			})

			if siteURL == "" {
				return fmt.Errorf("site URL required (--site)")
			}

			baseCfg = listing.DefaultConfig(siteURL, resourceType)
			if userAgent != "" {
				baseCfg.UserAgent = userAgent
			}
			if redisAddr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
				if err := rdb.Ping(context.Background()).Err(); err != nil {
					return fmt.Errorf("connect to redis at %s: %w", redisAddr, err)
				}
				baseCfg.Redis = rdb
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&siteURL, "site", "", "WordPress site root URL (e.g. https://example.com)")
	root.PersistentFlags().StringVar(&resourceType, "type", "posts", "REST collection to list")
	root.PersistentFlags().StringVar(&redisAddr, "redis", "", "redis address for response caching (e.g. localhost:6379)")
	root.PersistentFlags().StringVar(&userAgent, "user-agent", "", "User-Agent header override")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable log output")

	root.AddCommand(listCmd(), exportCmd(), serveCmd())
	return root.Execute()
}
