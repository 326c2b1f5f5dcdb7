package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	config "github.com/NordCoder/latency-agent/internal/config/status-agent"
	"github.com/NordCoder/latency-agent/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// migrator applies the embedded postgres migrations. DB_DSN wins over the
// config file.
func main() {
	cfgPath := flag.String("config", "config/status-agent.yaml", "path to the yaml config")
	down := flag.Bool("down", false, "roll back the latest migration instead")
	flag.Parse()

	dbURL := os.Getenv("DB_DSN")
	if dbURL == "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		dbURL = cfg.DB.URL
	}
	if dbURL == "" {
		log.Fatal("DB_DSN is empty")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Postgres())
	if err != nil {
		log.Fatalf("goose provider: %v", err)
	}

	if *down {
		res, err := p.Down(ctx)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Printf("migrations: rolled back %s", res)
		return
	}
	results, err := p.Up(ctx)
	if err != nil {
		log.Fatalf("migrate up: %v", err)
	}
	for _, r := range results {
		log.Printf("applied %s", r)
	}
	log.Println("migrations: up OK")
}
