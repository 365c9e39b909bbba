package main

import (
	"context"
	"database/sql"
	"ev-trip-planner/internal/adapters/repositories"
	"ev-trip-planner/internal/config"
	"ev-trip-planner/internal/platform/db"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	prune := flag.Bool("prune", false, "delete cache rows older than CACHE_TTL after initializing the schema")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := initSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

	if *prune {
		ttl, err := time.ParseDuration(config.Get("CACHE_TTL", "24h"))
		if err != nil {
			log.Fatalf("invalid CACHE_TTL: %v", err)
		}
		if err := pruneCaches(ctx, conn, ttl); err != nil {
			log.Fatal(err)
		}
	}
}

func initSchema(ctx context.Context, conn *sql.DB) error {
	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return err
	}
	log.Println("Schema ready.")
	return nil
}

func pruneCaches(ctx context.Context, conn *sql.DB, ttl time.Duration) error {
	log.Printf("Pruning cache rows older than %s...", ttl)
	n, err := repositories.PruneCaches(ctx, conn, ttl)
	if err != nil {
		return err
	}
	log.Printf("Pruned %d rows.", n)
	return nil
}
