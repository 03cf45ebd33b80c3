package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nook/nook/internal/collector"
	"github.com/nook/nook/internal/config"
	"github.com/nook/nook/internal/digest"
	"github.com/nook/nook/internal/models"
)

func main() {
	fmt.Println("🔍 nook - Collector Connectivity Check")
	fmt.Println("=====================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("\n📡 Testing collectors...")
	fmt.Println(strings.Repeat("-", 40))

	checkCollector(ctx, collector.NewRedditCollector(cfg.RedditClientID, cfg.RedditClientSecret, cfg.Subreddits))
	checkCollector(ctx, collector.NewHackerNewsCollector(cfg.HackerNewsLimit))

	fmt.Println("\n✅ Collector check completed!")
}

func checkCollector(ctx context.Context, c collector.Collector) {
	fmt.Printf("🔸 Testing %s... ", c.Name())

	if !c.Enabled() {
		fmt.Printf("⚠️  DISABLED (missing configuration)\n")
		return
	}

	items, err := c.Collect(ctx)
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d items)\n", len(items))

	if len(items) > 0 {
		fmt.Printf("   📝 Sample: \"%s\"\n", items[0].Title)
		preview := digest.RenderMarkdown(models.Digest{Service: c.Name(), Date: time.Now(), Items: items[:1]})
		fmt.Printf("   📄 Preview:\n%s\n", indent(preview, "      "))
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
