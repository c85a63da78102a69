package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/config"
	"github.com/VIRTUALGOD325/Grievance-Portal/internal/logstore"
	"github.com/VIRTUALGOD325/Grievance-Portal/internal/model/grievance"
)

func main() {
	log.SetFlags(0)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env, using system environment: %v", err)
	}

	mode := flag.String("mode", "view", "view or stats")
	limit := flag.Int("limit", 10, "number of recent entries to show in view mode")
	file := flag.String("file", "", "log file path (defaults to GRIEVANCE_LOG_FILE)")
	flag.Parse()

	path := *file
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("failed to load configuration: %v", err)
		}
		path = cfg.Log.Path
	}

	store := logstore.New(path)

	switch *mode {
	case "view":
		runView(store, *limit)
	case "stats":
		runStats(store)
	default:
		flag.Usage()
		log.Fatalf("unknown mode %q, use -mode=view or -mode=stats", *mode)
	}
}

func runView(store *logstore.Store, limit int) {
	entries, err := store.ReadRecent(limit)
	if err != nil {
		log.Fatalf("failed to read log: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("no entries have been logged yet")
		return
	}

	divider := strings.Repeat("=", 80)
	fmt.Println(divider)
	fmt.Printf("GRIEVANCE OUTPUT LOGS (%d entries)\n", len(entries))
	fmt.Println(divider)

	for i, entry := range entries {
		fmt.Printf("\nEntry #%d - %s\n", i+1, entry.Timestamp.Format("2006-01-02 15:04:05 MST"))
		fmt.Println(strings.Repeat("-", 80))
		if entry.Metadata.UserID != "" {
			fmt.Printf("User: %s\n", entry.Metadata.UserID)
		}
		if entry.Metadata.VoiceInput {
			fmt.Println("Voice Input: yes")
		}
		fmt.Printf("Input: %s\n", entry.UserInput)
		fmt.Printf("Department: %s\n", entry.Output.Department)
		location := entry.Output.Location
		if location == "" {
			location = "(not specified)"
		}
		fmt.Printf("Location: %s\n", location)
		fmt.Printf("Severity: %s\n", strings.ToUpper(string(entry.Output.Severity)))
		fmt.Printf("Description: %s\n", entry.Output.Description)
		fmt.Printf("Summary: %s\n", entry.Output.Summary)
	}
	fmt.Println()
	fmt.Println(divider)
}

func runStats(store *logstore.Store) {
	stats, err := store.Statistics()
	if err != nil {
		log.Fatalf("failed to aggregate log: %v", err)
	}

	fmt.Printf("Total Entries: %d\n", stats.Total)
	if stats.Total == 0 {
		os.Exit(0)
	}

	fmt.Println("\nBy Department:")
	for _, department := range grievance.Departments() {
		if count := stats.Departments[department]; count > 0 {
			fmt.Printf("  %s: %d (%.1f%%)\n", department, count, percent(count, stats.Total))
		}
	}

	fmt.Println("\nBy Severity:")
	for _, severity := range grievance.Severities() {
		if count := stats.Severities[severity]; count > 0 {
			fmt.Printf("  %s: %d (%.1f%%)\n", severity, count, percent(count, stats.Total))
		}
	}

	fmt.Println("\nInput Type:")
	fmt.Printf("  voice: %d\n", stats.VoiceInputs)
	fmt.Printf("  text:  %d\n", stats.Total-stats.VoiceInputs)

	fmt.Println("\nLocation Data:")
	fmt.Printf("  with location:    %d\n", stats.WithLocation)
	fmt.Printf("  without location: %d\n", stats.Total-stats.WithLocation)
}

func percent(count, total int) float64 {
	return float64(count) / float64(total) * 100
}
