package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/abelbrown/sift/internal/classify"
	"github.com/abelbrown/sift/internal/embed"
)

func runClassify() {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	vectorsPath := fs.String("vectors", "data/word_vectors_mini.json", "word vector table")
	threshold := fs.Float64("threshold", classify.DefaultThreshold, "minimum similarity for a vector match")
	fs.Parse(os.Args[1:])

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, "usage: sift classify [flags] <text>")
		os.Exit(1)
	}

	table, err := embed.Load(*vectorsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sift: %v\n", err)
		os.Exit(1)
	}

	classifier := classify.New(table, classify.DefaultCategories())
	results := classifier.Classify(text, float32(*threshold))

	if len(results) == 0 {
		fmt.Println("no category matched")
		return
	}

	fmt.Printf("%-16s %-10s %s\n", "CATEGORY", "MATCH", "CONFIDENCE")
	for _, r := range results {
		fmt.Printf("%-16s %-10s %.3f\n", r.Category, r.Match, r.Confidence)
	}
}
