package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geoplaces/core/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the configured database",
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
		fmt.Println("database migrated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
