package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoplaces/core/internal/config"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the in-memory search index from stored places and events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		application, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		n, err := application.reindexAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("reindexed %d documents\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

// reindexAll rebuilds both search indexes, matching spec.md §5's
// "the kernel reindexes all places and events on boot".
func (a *app) reindexAll(ctx context.Context) (int, error) {
	places, err := a.places.Reindex(ctx)
	if err != nil {
		return 0, fmt.Errorf("reindex places: %w", err)
	}
	events, err := a.events.Reindex(ctx)
	if err != nil {
		return 0, fmt.Errorf("reindex events: %w", err)
	}
	return places + events, nil
}
