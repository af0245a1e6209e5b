package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/abelbrown/sift/internal/settings"
	"github.com/abelbrown/sift/internal/store"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dbPath := fs.String("db", "", "sqlite database (default ~/.sift/sift.db)")
	recent := fs.Int("recent", 10, "number of recent decisions to show")
	fs.Parse(os.Args[1:])

	if *dbPath == "" {
		settingsPath, err := settings.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "sift: %v\n", err)
			os.Exit(1)
		}
		*dbPath = filepath.Join(filepath.Dir(settingsPath), "sift.db")
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sift: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	items, err := db.ItemCount()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sift: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("items seen: %d\n\n", items)

	counts, err := db.CategoryCounts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sift: %v\n", err)
		os.Exit(1)
	}
	if len(counts) == 0 {
		fmt.Println("no hide decisions recorded")
	} else {
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println("hidden by category:")
		for _, name := range names {
			fmt.Printf("  %-16s %d\n", name, counts[name])
		}
	}

	decisions, err := db.RecentDecisions(*recent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sift: %v\n", err)
		os.Exit(1)
	}
	if len(decisions) > 0 {
		fmt.Println("\nrecent decisions:")
		for _, d := range decisions {
			verdict := "show"
			if d.Hidden {
				verdict = "hide"
			}
			fmt.Printf("  %s  %-16s %-8s %.3f  %s\n",
				d.CreatedAt.Format("15:04:05"), d.Category, d.Match, d.Confidence, verdict)
		}
	}
}
