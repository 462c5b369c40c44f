package main

// Apply Postgres migrations:
//   go run ./cmd/migrate

import (
	"context"
	"log"

	"gigmarket/internal/config"
	"gigmarket/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if !database.IsPostgres(cfg.DatabaseURL) {
		log.Fatal("cmd/migrate targets PostgreSQL; SQLite schemas are created on startup")
	}

	sqlDB, err := database.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(context.Background(), sqlDB); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	log.Println("migrations applied")
}
