package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ombresaco/shortsmaker/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Segment cache maintenance",
}

var cacheEvictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Run age and size-pressure eviction",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		removed, err := a.cache.Evict()
		if err != nil {
			return err
		}
		log.Info().Int("removed", removed).Msg("eviction finished")
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate [video id]",
	Short: "Delete every cached segment of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		a, err := newApp(cfg)
		if err != nil {
			return err
		}

		removed, err := a.cache.Invalidate(args[0])
		if err != nil {
			return err
		}
		log.Info().Str("video", args[0]).Int("removed", removed).Msg("cache invalidated")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheEvictCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
}
