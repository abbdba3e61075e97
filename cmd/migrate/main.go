package main

import (
	"log"
	"os"

	"caza-fotos/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://db/migrations", dsn)
	if err != nil {
		log.Fatalf("migration setup failed: %v", err)
	}
	defer m.Close()

	// "down 1" style rollbacks go through the migrate CLI; this binary only
	// applies pending migrations.
	switch err := m.Up(); err {
	case nil:
		log.Println("database migrations applied")
	case migrate.ErrNoChange:
		log.Println("database already up to date")
	default:
		log.Fatalf("database migration failed: %v", err)
	}
}
