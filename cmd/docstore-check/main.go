package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nook/nook/internal/config"
	"github.com/nook/nook/internal/docstore"
)

func main() {
	fmt.Println("🗄️  nook - Document Store Check")
	fmt.Println("==============================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	service := "healthcheck"
	if len(os.Args) > 1 {
		service = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := docstore.Open(ctx, cfg.DocStore())
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}

	today := time.Now()
	content := fmt.Sprintf("# %s\n\nWritten by docstore-check at %s\n", service, today.Format(time.RFC3339))

	fmt.Printf("🔸 Saving %s... ", docstore.Key(service, today))
	key, err := store.Save(ctx, content, service, today)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ %s\n", key)

	fmt.Print("🔸 Loading it back... ")
	loaded, found, err := store.Load(ctx, service, today)
	switch {
	case err != nil:
		fmt.Printf("❌ ERROR: %v\n", err)
		os.Exit(1)
	case !found:
		fmt.Println("❌ document not found")
		os.Exit(1)
	case loaded != content:
		fmt.Println("❌ content mismatch")
		os.Exit(1)
	}
	fmt.Println("✅ content matches")

	fmt.Print("🔸 Listing dates... ")
	dates, err := store.ListDates(ctx, service)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ %d date(s)\n", len(dates))
	for i, date := range dates {
		if i >= 5 {
			break
		}
		fmt.Printf("   📅 %s\n", docstore.FormatDate(date))
	}

	fmt.Println("\n✅ Document store check completed!")
}
