package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"caza-fotos/internal/config"
	"caza-fotos/internal/db"
	"caza-fotos/internal/server"
	"caza-fotos/internal/storage"

	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	var conn *gorm.DB
	if os.Getenv("DATABASE_URL") != "" {
		var err error
		conn, err = db.Open()
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
			sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
			sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
			sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)
		}
	} else {
		log.Println("DATABASE_URL is not set; running with the in-memory store")
	}

	objects, err := storage.New(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("storage setup failed: %v", err)
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	srv := server.New(conn, objects, cfg)
	log.Printf("caza-fotos server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
