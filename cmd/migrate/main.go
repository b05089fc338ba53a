// Command migrate runs schema operations against the configured database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/database"
)

func main() {
	action := flag.String("action", "status", "migration action: up, down or status")
	steps := flag.Int("steps", 1, "number of migrations to roll back (down only)")
	flag.Parse()

	if err := run(*action, *steps); err != nil {
		log.Fatal(err)
	}
}

func run(action string, steps int) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// the migrate CLI owns the schema; never apply the startup policy here
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch action {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")

	case "down":
		if steps < 1 {
			return fmt.Errorf("-steps must be at least 1, got %d", steps)
		}
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		applied := status.AppliedVersions
		if len(applied) == 0 {
			log.Println("no applied migrations to roll back")
			return nil
		}
		if steps > len(applied) {
			steps = len(applied)
		}
		// roll back newest first
		for i := 0; i < steps; i++ {
			version := applied[len(applied)-1-i]
			if err := database.RollbackMigration(ctx, db, version); err != nil {
				return fmt.Errorf("rollback of migration %d failed: %w", version, err)
			}
			log.Printf("rolled back migration %d", version)
		}

	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d",
			status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
			len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			log.Printf("pending: %04d_%s", m.Version, m.Name)
		}

	default:
		return fmt.Errorf("unknown action %q (want up, down or status)", action)
	}

	return nil
}
