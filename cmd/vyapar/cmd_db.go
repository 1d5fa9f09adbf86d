package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/vyapar/config"
	"github.com/shashiranjanraj/vyapar/database/indexes"
	"github.com/shashiranjanraj/vyapar/database/seeders"
	"github.com/shashiranjanraj/vyapar/pkg/database"
)

// bootDB loads config and opens the database connection.
func bootDB() (context.Context, context.CancelFunc, error) {
	if err := config.Load(); err != nil {
		return nil, nil, err
	}
	if err := database.Connect(); err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	return ctx, cancel, nil
}

// vyapar db:index
var dbIndexCmd = &cobra.Command{
	Use:   "db:index",
	Short: "Create the indexes the application depends on",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, err := bootDB()
		if err != nil {
			return err
		}
		defer cancel()
		defer database.Disconnect(context.Background()) //nolint:errcheck

		fmt.Println("Ensuring indexes…")
		return indexes.EnsureAll(ctx, database.DB)
	},
}

// vyapar db:seed
var dbSeedCmd = &cobra.Command{
	Use:   "db:seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel, err := bootDB()
		if err != nil {
			return err
		}
		defer cancel()
		defer database.Disconnect(context.Background()) //nolint:errcheck

		fmt.Println("Running seeders…")
		return seeders.RunAll(ctx, database.DB)
	},
}
