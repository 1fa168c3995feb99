package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"

	"cryptex/config"
	"cryptex/pkg/database"
)

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")
	flag.Parse()

	cfg := config.LoadConfig()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	files, err := os.ReadDir(*migrationsDir)
	if err != nil {
		log.Fatalf("Failed to read migrations directory: %v", err)
	}

	var names []string
	for _, f := range files {
		if filepath.Ext(f.Name()) == ".sql" {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(*migrationsDir, name))
		if err != nil {
			log.Fatalf("Failed to read migration %s: %v", name, err)
		}
		log.Printf("Applying migration: %s", name)
		if _, err := pool.Exec(ctx, string(content)); err != nil {
			log.Fatalf("Failed to execute migration %s: %v", name, err)
		}
	}

	log.Println("Migrations completed")
}
