package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"leadflow/internal/platform/config"
	"leadflow/internal/platform/database"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	migrationsDir := flag.String("dir", "migrations", "Path to migrations directory")

	flag.Parse()

	if *direction != "up" && *direction != "down" {
		log.Fatal("Invalid direction: must be 'up' or 'down'")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := runMigrations(db, *migrationsDir, *direction); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Migration completed successfully")
}

func runMigrations(db *sql.DB, dir, direction string) error {
	pattern := filepath.Join(dir, "*."+direction+".sql")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s migrations found in %s", direction, dir)
	}

	sort.Strings(files)
	if direction == "down" {
		// Down migrations run newest-first.
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}

	for _, file := range files {
		contents, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if _, err := db.Exec(string(contents)); err != nil {
			return fmt.Errorf("apply %s: %w", file, err)
		}
		log.Printf("Applied %s", filepath.Base(file))
	}
	return nil
}
