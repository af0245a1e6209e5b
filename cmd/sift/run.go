package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/sift/internal/bus"
	"github.com/abelbrown/sift/internal/feed"
	"github.com/abelbrown/sift/internal/fetch"
	"github.com/abelbrown/sift/internal/logging"
	"github.com/abelbrown/sift/internal/pipeline"
	"github.com/abelbrown/sift/internal/reactor"
	"github.com/abelbrown/sift/internal/settings"
	"github.com/abelbrown/sift/internal/store"
	"github.com/abelbrown/sift/internal/ui"
)

// fetchInterval is the time between feed fetch cycles.
const fetchInterval = 5 * time.Minute

// persistingFetcher saves fetched items to the store before they reach
// the document.
type persistingFetcher struct {
	inner *fetch.Fetcher
	db    *store.Store
}

func (p *persistingFetcher) Fetch(ctx context.Context, src fetch.Source) ([]feed.Item, error) {
	items, err := p.inner.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	if p.db != nil {
		if _, saveErr := p.db.SaveItems(items); saveErr != nil {
			logging.Warn("persist items failed", "source", src.Name, "error", saveErr)
		}
	}
	return items, nil
}

func runRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	settingsPath := fs.String("settings", "", "settings file (default ~/.sift/settings.json)")
	vectorsPath := fs.String("vectors", "data/word_vectors_mini.json", "word vector table")
	dbPath := fs.String("db", "", "sqlite database (default ~/.sift/sift.db, empty string with -no-db to disable)")
	noDB := fs.Bool("no-db", false, "disable decision persistence")
	fs.Parse(os.Args[1:])

	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "sift: init logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Close()

	if *settingsPath == "" {
		p, err := settings.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "sift: %v\n", err)
			os.Exit(1)
		}
		*settingsPath = p
	}
	if err := os.MkdirAll(filepath.Dir(*settingsPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "sift: create settings directory: %v\n", err)
		os.Exit(1)
	}

	var db *store.Store
	if !*noDB {
		path := *dbPath
		if path == "" {
			path = filepath.Join(filepath.Dir(*settingsPath), "sift.db")
		}
		var err error
		db, err = store.Open(path)
		if err != nil {
			// Persistence is best-effort; filtering works without it.
			logging.Warn("open database failed, persistence disabled", "error", err)
			db = nil
		} else {
			defer db.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	doc := feed.NewDocument()
	viewport := feed.NewViewport()
	src := settings.NewFileStore(*settingsPath)

	cfg := pipeline.Config{
		Document:  doc,
		Viewport:  viewport,
		Settings:  src,
		TablePath: *vectorsPath,
	}
	if db != nil {
		cfg.Recorder = db
	}
	pipe := pipeline.New(cfg)

	if err := pipe.Init(ctx); err != nil {
		// Fail open: keep showing the unfiltered stream.
		logging.Error("pipeline unavailable, stream is unfiltered", "error", err)
	}

	b := bus.New()
	react := reactor.New(pipe, src)
	go react.Run(ctx, b.Subscribe("reactor", 8))

	if watcher, err := settings.NewWatcher(*settingsPath, b); err != nil {
		logging.Warn("settings watcher unavailable", "error", err)
	} else {
		go watcher.Run(ctx)
	}

	fetcher := &persistingFetcher{inner: fetch.NewFetcher(20*time.Second, 2), db: db}
	coordinator := fetch.NewCoordinator(doc, fetcher, fetch.DefaultSources)
	coordinator.Start(ctx, fetchInterval)

	loadSnapshot := func() tea.Cmd {
		return func() tea.Msg {
			items := doc.Items()

			// The rendered stream is the viewport: report what is on
			// screen so fresh content triggers an incremental scan.
			ids := make([]string, len(items))
			for i, it := range items {
				ids[i] = it.ID
			}
			viewport.SetVisible(ids)

			return ui.SnapshotLoaded{Snap: ui.Snapshot{
				Items:      items,
				State:      pipe.State().String(),
				Generation: pipe.Generation(),
				CacheSize:  pipe.Cache().Len(),
			}}
		}
	}
	repass := func() tea.Cmd {
		return func() tea.Msg {
			pipe.Cache().InvalidateAll()
			pipe.FilterAll()
			return nil
		}
	}

	program := tea.NewProgram(ui.NewApp(loadSnapshot, repass), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "sift: %v\n", err)
		os.Exit(1)
	}

	cancel()
	coordinator.Wait()
	pipe.Wait()
}
