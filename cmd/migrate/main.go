package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Rrens/recruit-advisor/internal/config"
	"github.com/Rrens/recruit-advisor/internal/repository/postgres"
	"github.com/joho/godotenv"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations")
	version := flag.Bool("version", false, "print the current schema version")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fail("Failed to load config: %v", err)
	}

	dsn := cfg.Database.DSN()
	source := cfg.Database.MigrationsPath
	fmt.Printf("Database %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	switch {
	case *version:
		v, dirty, err := postgres.MigrationVersion(dsn, source)
		if err != nil {
			fail("Failed to read version: %v", err)
		}
		fmt.Printf("Schema version %d (dirty=%t)\n", v, dirty)

	case *down > 0:
		if err := postgres.RollbackMigrations(dsn, source, *down); err != nil {
			fail("Rollback failed: %v", err)
		}
		fmt.Printf("Rolled back %d migration(s)\n", *down)

	default:
		if err := postgres.RunMigrations(dsn, source); err != nil {
			fail("Migration failed: %v", err)
		}
		fmt.Println("Migrations applied")
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
