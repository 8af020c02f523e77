package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"time"

	"label-cabinet/backstage/internal/config"
	"label-cabinet/backstage/internal/db"
	"label-cabinet/backstage/internal/db/repositories"
)

// Generates a service API key and stores it in api_keys.
func main() {
	label := flag.String("label", "", "what the key is for, e.g. royalty-import")
	flag.Parse()

	if *label == "" {
		log.Fatal("-label is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	sqlxDB, err := db.InitPostgres(cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer sqlxDB.Close()

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("generate key: %v", err)
	}
	key := "bsk_" + hex.EncodeToString(buf)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repositories.NewApiKeysRepo(sqlxDB).Create(ctx, key, *label); err != nil {
		log.Fatalf("insert api key: %v", err)
	}

	fmt.Println("New API Key:", key)
}
