package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/research-engine/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the search result cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		n, err := st.PurgeExpiredSearches(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("purged %d expired entries\n", n)
		return nil
	},
}

var cacheKeyCmd = &cobra.Command{
	Use:   "key <query>",
	Short: "Print the normalized cache key for a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(cache.NormalizeQuery(args[0]))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd, cacheKeyCmd)
	rootCmd.AddCommand(cacheCmd)
}
