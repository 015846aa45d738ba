package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/picstream/backend/internal/config"
	"github.com/picstream/backend/internal/database"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/storage"
	"github.com/spf13/cobra"
)

var dryRun bool

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Picstream admin - maintenance tasks for the Picstream backend",
	Long: `Picstream admin provides operational tooling for the Picstream backend:
database statistics and cleanup of orphaned storage objects.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row counts for every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := database.Initialize(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		tables := []struct {
			name  string
			model interface{}
		}{
			{"users", &models.User{}},
			{"posts", &models.Post{}},
			{"likes", &models.Like{}},
			{"comments", &models.Comment{}},
			{"follows", &models.Follow{}},
		}
		for _, t := range tables {
			var count int64
			if err := database.DB.Model(t.model).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count %s: %w", t.name, err)
			}
			fmt.Printf("%-10s %d\n", t.name, count)
		}
		return nil
	},
}

var pruneObjectsCmd = &cobra.Command{
	Use:   "prune-objects",
	Short: "Delete storage objects whose posts no longer exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := database.Initialize(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 uploader: %w", err)
		}

		ctx := context.Background()
		keys, err := uploader.ListKeys(ctx, "posts/")
		if err != nil {
			return err
		}
		fmt.Printf("Found %d objects under posts/\n", len(keys))

		var liveKeys []string
		if err := database.DB.Model(&models.Post{}).Pluck("storage_key", &liveKeys).Error; err != nil {
			return fmt.Errorf("failed to load storage keys: %w", err)
		}
		live := make(map[string]bool, len(liveKeys))
		for _, k := range liveKeys {
			live[k] = true
		}

		pruned := 0
		for _, key := range keys {
			if live[key] {
				continue
			}
			if dryRun {
				fmt.Printf("would delete %s\n", key)
				pruned++
				continue
			}
			if err := uploader.DeleteObject(ctx, key); err != nil {
				fmt.Fprintf(os.Stderr, "failed to delete %s: %v\n", key, err)
				continue
			}
			pruned++
		}

		if dryRun {
			fmt.Printf("%d orphaned objects (dry run, nothing deleted)\n", pruned)
		} else {
			fmt.Printf("Deleted %d orphaned objects\n", pruned)
		}
		return nil
	},
}

func init() {
	pruneObjectsCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphaned objects without deleting them")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(pruneObjectsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
