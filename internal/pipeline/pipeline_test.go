package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abelbrown/sift/internal/embed"
	"github.com/abelbrown/sift/internal/feed"
	"github.com/abelbrown/sift/internal/settings"
)

type stubSource struct {
	mu  sync.Mutex
	cfg *settings.Settings
	err error
}

func (s *stubSource) Load() (*settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, s.err
}

func (s *stubSource) set(cfg *settings.Settings) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

type countingRecorder struct {
	mu        sync.Mutex
	decisions int
}

func (r *countingRecorder) RecordDecision(itemID, category string, confidence float32, match string, hidden bool, generation int) error {
	r.mu.Lock()
	r.decisions++
	r.mu.Unlock()
	return nil
}

// axis returns a Dim-length vector with 1.0 at index i.
func axis(i int) embed.Vector {
	v := make(embed.Vector, embed.Dim)
	v[i] = 1.0
	return v
}

func testTable() *embed.Table {
	return embed.NewTable(map[string]embed.Vector{
		"movie": axis(0),
		"film":  axis(0),
		"music": axis(0),
	})
}

// enabled returns defaults with the named category switched on.
func enabled(names ...string) *settings.Settings {
	cfg := settings.Default()
	for _, name := range names {
		c := cfg.Categories[name]
		c.Enabled = true
		cfg.Categories[name] = c
	}
	return cfg
}

func newTestPipeline(t *testing.T, doc *feed.Document, cfg *settings.Settings) *Pipeline {
	t.Helper()
	p := New(Config{
		Document: doc,
		Settings: &stubSource{cfg: cfg},
		Table:    testTable(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		p.Wait()
	})
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return p
}

func TestInitFailureFailsOpen(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(feed.Item{ID: "a", Title: "Trump holds rally"})

	p := New(Config{
		Document: doc,
		Settings: &stubSource{err: errors.New("storage down")},
		Table:    testTable(),
	})
	if err := p.Init(context.Background()); err == nil {
		t.Fatal("Init succeeded with failing settings source")
	}

	if p.State() != StateFailed {
		t.Errorf("State = %v, want failed", p.State())
	}
	if p.ScanNew() {
		t.Error("ScanNew ran on a failed pipeline")
	}
	if doc.HiddenCount() != 0 {
		t.Error("failed pipeline hid content; must fail open")
	}
}

func TestExactMatchHidesWhenCategoryEnabled(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(
		feed.Item{ID: "pol", Title: "Trump holds rally"},
		feed.Item{ID: "other", Title: "quiet nature walk"},
	)

	newTestPipeline(t, doc, enabled("politics"))

	pol, _ := doc.Get("pol")
	if !pol.Hidden {
		t.Error("exact-match politics item not hidden")
	}
	if len(pol.Labels) == 0 || pol.Labels[0] != "politics:high" {
		t.Errorf("labels = %v, want politics:high badge", pol.Labels)
	}

	other, _ := doc.Get("other")
	if other.Hidden {
		t.Error("unrelated item hidden")
	}
	if other.ProcessedGen != 1 {
		t.Errorf("unrelated item generation = %d, want 1", other.ProcessedGen)
	}
}

func TestExactMatchNotHiddenWhenCategoryDisabled(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(feed.Item{ID: "pol", Title: "Trump holds rally"})

	// Classification still happens (badge rendered); the hide decision
	// is a separate stage gated on enablement.
	newTestPipeline(t, doc, settings.Default())

	pol, _ := doc.Get("pol")
	if pol.Hidden {
		t.Error("item hidden though no category is enabled")
	}
	if len(pol.Labels) == 0 {
		t.Error("classification badge missing on disabled category")
	}
}

func TestEverythingModeHidesAllWithoutClassifying(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(
		feed.Item{ID: "a", Title: "anything at all"},
		feed.Item{ID: "b", Title: "movie night"},
	)

	p := newTestPipeline(t, doc, enabled(settings.EverythingCategory))

	if doc.HiddenCount() != 2 {
		t.Errorf("HiddenCount = %d, want 2", doc.HiddenCount())
	}
	for _, id := range []string{"a", "b"} {
		v, _ := doc.Get(id)
		if len(v.Labels) != 1 || v.Labels[0] != "Blocked" {
			t.Errorf("item %s labels = %v, want [Blocked]", id, v.Labels)
		}
	}

	// Wildcard semantics are a bypass: the classifier cache was never
	// consulted.
	hits, misses := p.Cache().Stats()
	if hits != 0 || misses != 0 {
		t.Errorf("cache touched in everything mode: hits=%d misses=%d", hits, misses)
	}
}

func TestWhitelistOverridesEverything(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(
		feed.Item{ID: "keep", Title: "lecture", Channel: "Khan Academy"},
		feed.Item{ID: "vid42", Title: "anything", URL: "https://example.com/watch?v=vid42"},
		feed.Item{ID: "hide", Title: "anything else"},
	)

	cfg := enabled(settings.EverythingCategory)
	cfg.Whitelist = settings.Whitelist{
		Channels: []string{"khan academy"},
		Videos:   []string{"vid42"},
	}
	newTestPipeline(t, doc, cfg)

	for _, id := range []string{"keep", "vid42"} {
		v, _ := doc.Get(id)
		if v.Hidden {
			t.Errorf("whitelisted item %s hidden", id)
		}
		if v.ProcessedGen != 1 {
			t.Errorf("whitelisted item %s not marked processed", id)
		}
	}
	if v, _ := doc.Get("hide"); !v.Hidden {
		t.Error("non-whitelisted item not hidden in everything mode")
	}
}

func TestScanIdempotence(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(feed.Item{ID: "pol", Title: "Trump holds rally"})

	p := newTestPipeline(t, doc, enabled("politics"))

	before := doc.Items()
	if !p.ScanNew() {
		t.Fatal("second scan dropped unexpectedly")
	}
	after := doc.Items()

	for i := range before {
		if before[i].Hidden != after[i].Hidden || len(before[i].Labels) != len(after[i].Labels) {
			t.Errorf("item %s state changed on idempotent rescan", before[i].ID)
		}
	}
}

func TestFullRepassReevaluatesProcessedItems(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(feed.Item{ID: "pol", Title: "Trump holds rally"})

	p := newTestPipeline(t, doc, settings.Default())

	if v, _ := doc.Get("pol"); v.Hidden {
		t.Fatal("hidden with defaults")
	}

	// Settings change: politics now enabled. The full re-pass must
	// re-evaluate the already-processed item.
	p.SetSettings(enabled("politics"))
	p.Cache().InvalidateAll()
	p.FilterAll()

	v, _ := doc.Get("pol")
	if !v.Hidden {
		t.Error("item not re-evaluated by full re-pass")
	}
	if v.ProcessedGen != 2 {
		t.Errorf("generation = %d, want 2", v.ProcessedGen)
	}
}

func TestPerCategoryThreshold(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(feed.Item{ID: "ent", Title: "movie film music"})

	cfg := enabled("entertainment")
	c := cfg.Categories["entertainment"]
	c.Threshold = 0.99
	cfg.Categories["entertainment"] = c

	p := newTestPipeline(t, doc, cfg)

	// Perfect alignment: similarity 1.0 >= 0.99.
	if v, _ := doc.Get("ent"); !v.Hidden {
		t.Error("similarity 1.0 below threshold 0.99?")
	}

	// Impossible threshold: nothing passes.
	c.Threshold = 1.01
	cfg2 := enabled("entertainment")
	cfg2.Categories["entertainment"] = c
	p.SetSettings(cfg2)
	p.Cache().InvalidateAll()
	p.FilterAll()

	if v, _ := doc.Get("ent"); v.Hidden {
		t.Error("hidden despite threshold above any possible confidence")
	}
}

func TestMissingTitleSkippedUnmarked(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(feed.Item{ID: "bare"})

	p := newTestPipeline(t, doc, enabled("politics"))

	v, _ := doc.Get("bare")
	if v.ProcessedGen != 0 {
		t.Fatal("title-less item marked processed")
	}

	// The host finishes rendering; a later scan picks it up. The
	// background mutation trigger may hold the scan gate, so retry.
	doc.SetTitle("bare", "Trump holds rally")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.ScanNew()
		v, _ = doc.Get("bare")
		if v.ProcessedGen == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if v.ProcessedGen != 1 || !v.Hidden {
		t.Errorf("late-rendered item not processed: %+v", v)
	}
}

func TestScanGateDropsConcurrentScan(t *testing.T) {
	doc := feed.NewDocument()
	p := newTestPipeline(t, doc, settings.Default())

	p.scanMu.Lock()
	dropped := !p.ScanNew()
	p.scanMu.Unlock()

	if !dropped {
		t.Error("scan ran while the gate was held")
	}
}

func TestMutationTriggerProcessesNewItems(t *testing.T) {
	doc := feed.NewDocument()
	p := newTestPipeline(t, doc, enabled("politics"))

	// Rapid successive mutations coalesce into a debounced scan.
	doc.Append(feed.Item{ID: "n1", Title: "Trump holds rally"})
	doc.Append(feed.Item{ID: "n2", Title: "quiet nature walk"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v1, _ := doc.Get("n1")
		v2, _ := doc.Get("n2")
		if v1.ProcessedGen == p.Generation() && v2.ProcessedGen == p.Generation() {
			if !v1.Hidden {
				t.Error("n1 not hidden")
			}
			if v2.Hidden {
				t.Error("n2 hidden")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("mutation trigger never processed appended items")
}

func TestRecorderReceivesDecisions(t *testing.T) {
	doc := feed.NewDocument()
	doc.Append(feed.Item{ID: "pol", Title: "Trump holds rally"})

	rec := &countingRecorder{}
	p := New(Config{
		Document: doc,
		Settings: &stubSource{cfg: enabled("politics")},
		Table:    testTable(),
		Recorder: rec,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		p.Wait()
	})
	if err := p.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	rec.mu.Lock()
	n := rec.decisions
	rec.mu.Unlock()
	if n != 1 {
		t.Errorf("recorded %d decisions, want 1", n)
	}
}
