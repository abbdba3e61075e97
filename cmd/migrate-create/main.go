package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const migrationsDir = "db/migrations"

func main() {
	if len(os.Args) != 2 || strings.TrimSpace(os.Args[1]) == "" {
		log.Fatalf("usage: %s <migration-name>", filepath.Base(os.Args[0]))
	}
	name := strings.TrimSpace(os.Args[1])
	if strings.ContainsAny(name, " \t") {
		log.Fatal("migration name must not contain whitespace")
	}

	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}

	stamp := time.Now().UTC().Format("20060102150405")
	for _, direction := range []string{"up", "down"} {
		path := filepath.Join(migrationsDir, fmt.Sprintf("%s_%s.%s.sql", stamp, name, direction))
		if _, err := os.Stat(path); err == nil {
			log.Fatalf("already exists: %s", path)
		}
		header := fmt.Sprintf("-- %s %s\n", name, direction)
		if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
		log.Printf("created %s", path)
	}
}
