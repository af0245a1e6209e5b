// Package pipeline orchestrates incremental filtering of the live feed
// document: discovery of new items via mutation and visibility triggers,
// classification through the memoizing index, whitelist overrides, and
// application of hide/label effects.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/sift/internal/classify"
	"github.com/abelbrown/sift/internal/embed"
	"github.com/abelbrown/sift/internal/feed"
	"github.com/abelbrown/sift/internal/index"
	"github.com/abelbrown/sift/internal/logging"
	"github.com/abelbrown/sift/internal/settings"
)

// mutationDebounce coalesces bursts of document mutations into a single
// scan: only the trailing edge of a 100ms-quiet burst triggers work.
const mutationDebounce = 100 * time.Millisecond

// State is the pipeline lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// SettingsSource loads a configuration snapshot.
type SettingsSource interface {
	Load() (*settings.Settings, error)
}

// Recorder persists individual filter decisions. Optional; errors are
// logged, never surfaced.
type Recorder interface {
	RecordDecision(itemID, category string, confidence float32, match string, hidden bool, generation int) error
}

// Config wires a Pipeline's collaborators.
type Config struct {
	Document *feed.Document
	Viewport *feed.Viewport // optional visibility trigger
	Settings SettingsSource
	// TablePath locates the word-vector resource. Ignored when Table is
	// set (tests inject a prebuilt table).
	TablePath string
	Table     *embed.Table
	Recorder  Recorder
}

// Pipeline is the incremental filtering engine.
//
// Scans are mutually exclusive, never queued: a trigger that fires
// while a scan is running is dropped, relying on the next trigger to
// pick up remaining work. A full re-pass (settings change) waits for
// the active scan instead of being dropped.
type Pipeline struct {
	doc      *feed.Document
	viewport *feed.Viewport
	source   SettingsSource
	recorder Recorder

	tablePath string
	table     *embed.Table

	classifier *classify.Classifier

	state      atomic.Int32
	cfg        atomic.Pointer[settings.Settings]
	generation atomic.Int64

	scanMu   sync.Mutex  // mutual exclusion of work-in-progress
	scanning atomic.Bool // observable in-progress state

	cache *index.Index
	wg    sync.WaitGroup
}

// New creates a Pipeline. Call Init before use.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		doc:       cfg.Document,
		viewport:  cfg.Viewport,
		source:    cfg.Settings,
		recorder:  cfg.Recorder,
		tablePath: cfg.TablePath,
		table:     cfg.Table,
		cache:     index.New(),
	}
}

// Init performs async initialization: settings and the embedding table
// load concurrently, then triggers are installed and one full pass runs.
// On failure the pipeline logs and stays non-functional; content is
// never hidden by a pipeline that failed to start.
func (p *Pipeline) Init(ctx context.Context) error {
	p.state.Store(int32(StateInitializing))

	var cfg *settings.Settings

	var g errgroup.Group
	g.Go(func() error {
		loaded, err := p.source.Load()
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		cfg = loaded
		return nil
	})
	g.Go(func() error {
		if p.table != nil {
			return nil
		}
		table, err := embed.Load(p.tablePath)
		if err != nil {
			return fmt.Errorf("load embeddings: %w", err)
		}
		p.table = table
		return nil
	})
	if err := g.Wait(); err != nil {
		p.state.Store(int32(StateFailed))
		logging.Error("pipeline initialization failed", "error", err)
		return err
	}

	p.cfg.Store(cfg)
	p.classifier = classify.New(p.table, buildCategories(cfg))

	p.startTriggers(ctx)
	p.state.Store(int32(StateReady))
	logging.Info("pipeline ready", "words", p.table.Len(), "categories", len(p.classifier.Categories()))

	p.FilterAll()
	return nil
}

// State returns the lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Ready reports whether the pipeline is initialized and filtering.
func (p *Pipeline) Ready() bool {
	return p.State() == StateReady
}

// Scanning reports whether a scan is currently in progress.
func (p *Pipeline) Scanning() bool {
	return p.scanning.Load()
}

// Generation returns the current settings generation.
func (p *Pipeline) Generation() int {
	return int(p.generation.Load())
}

// Cache exposes the classification cache (reactor invalidation, stats).
func (p *Pipeline) Cache() *index.Index {
	return p.cache
}

// Settings returns the current configuration snapshot.
func (p *Pipeline) Settings() *settings.Settings {
	return p.cfg.Load()
}

// SetSettings atomically replaces the configuration snapshot. The
// category model is rebuilt on the next full pass, under the scan lock.
func (p *Pipeline) SetSettings(cfg *settings.Settings) {
	p.cfg.Store(cfg)
}

// Wait blocks until background trigger processing has exited.
// Call after cancelling the context passed to Init.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// startTriggers installs the two change-detection mechanisms: debounced
// document mutations and direct viewport visibility events. Both funnel
// into ScanNew.
func (p *Pipeline) startTriggers(ctx context.Context) {
	mutations := p.doc.Subscribe(16)

	var visibility <-chan struct{}
	if p.viewport != nil {
		visibility = p.viewport.Events()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case <-mutations:
				if timer == nil {
					timer = time.NewTimer(mutationDebounce)
				} else {
					timer.Reset(mutationDebounce)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				p.ScanNew()

			case <-visibility:
				p.ScanNew()
			}
		}
	}()
}

// ScanNew runs one incremental scan over items not yet processed this
// generation. Returns false when the scan was dropped: either the
// pipeline is not ready or another scan holds the gate.
func (p *Pipeline) ScanNew() bool {
	if !p.Ready() {
		return false
	}
	if !p.scanMu.TryLock() {
		return false
	}
	defer p.scanMu.Unlock()

	p.scanning.Store(true)
	defer p.scanning.Store(false)

	gen := int(p.generation.Load())
	candidates := p.doc.Unprocessed(gen)
	if len(candidates) == 0 {
		return true
	}
	logging.Debug("incremental scan", "candidates", len(candidates), "generation", gen)
	p.processItems(candidates, gen)
	return true
}

// FilterAll performs the full re-pass: clear all processed markers and
// badges, rebuild the category model from the current settings, and
// re-evaluate every item. Unlike ScanNew it waits for an active scan
// rather than dropping.
func (p *Pipeline) FilterAll() {
	if !p.Ready() {
		return
	}
	p.scanMu.Lock()
	defer p.scanMu.Unlock()

	p.scanning.Store(true)
	defer p.scanning.Store(false)

	cfg := p.cfg.Load()
	p.classifier.SetCategories(buildCategories(cfg))

	gen := int(p.generation.Add(1))
	p.doc.ResetAnnotations()

	items := p.doc.Items()
	logging.Info("full re-pass", "items", len(items), "generation", gen)
	p.processItems(items, gen)
}

// processItems applies the per-scan algorithm to candidates in document
// order. Failures are isolated per item: a malformed item is skipped
// and the batch continues.
func (p *Pipeline) processItems(items []feed.ItemView, gen int) {
	cfg := p.cfg.Load()
	if cfg == nil {
		return
	}
	threshold := classifyThreshold(cfg)

	for _, item := range items {
		p.processItem(item, cfg, threshold, gen)
	}
}

// processItem evaluates one item. The processed marker is set at the
// end regardless of outcome, except when the item has no title yet:
// that means "not fully rendered", and the item stays unmarked so a
// later scan retries it.
func (p *Pipeline) processItem(item feed.ItemView, cfg *settings.Settings, threshold float32, gen int) {
	if item.Title == "" {
		return
	}

	// Whitelist is an absolute override, checked before classification.
	if cfg.Whitelist.HasChannel(item.Channel) || cfg.Whitelist.HasVideo(item.ID) {
		p.doc.SetHidden(item.ID, false)
		p.doc.MarkProcessed(item.ID, gen)
		return
	}

	// Everything mode bypasses the classifier entirely.
	if cfg.EverythingEnabled() {
		p.doc.SetHidden(item.ID, true)
		p.doc.AddLabel(item.ID, "Blocked")
		p.doc.MarkProcessed(item.ID, gen)
		p.record(item.ID, settings.EverythingCategory, 1, "wildcard", true, gen)
		return
	}

	fragment := item.FragmentText()
	classifications := p.cache.GetOrCompute(fragment, func() []classify.Classification {
		return p.classifier.Classify(fragment, threshold)
	})

	hide := false
	for _, c := range classifications {
		p.doc.AddLabel(item.ID, badgeLabel(c))

		catCfg, ok := cfg.Categories[c.Category]
		if ok && catCfg.Enabled && c.Confidence >= catCfg.EffectiveThreshold() {
			hide = true
			p.record(item.ID, c.Category, c.Confidence, string(c.Match), true, gen)
		}
	}

	p.doc.SetHidden(item.ID, hide)
	p.doc.MarkProcessed(item.ID, gen)
}

// record persists a decision when a recorder is wired.
func (p *Pipeline) record(itemID, category string, confidence float32, match string, hidden bool, gen int) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.RecordDecision(itemID, category, confidence, match, hidden, gen); err != nil {
		logging.Warn("record decision failed", "item", itemID, "error", err)
	}
}

// classifyThreshold picks the score cutoff for the raw classify call:
// the lowest effective threshold among enabled categories, so no
// enabled category's matches are cut off below its own bar. Defaults
// to the standard threshold when nothing is enabled.
func classifyThreshold(cfg *settings.Settings) float32 {
	min := float32(classify.DefaultThreshold)
	for name, c := range cfg.Categories {
		if name == settings.EverythingCategory || !c.Enabled {
			continue
		}
		if t := c.EffectiveThreshold(); t < min {
			min = t
		}
	}
	return min
}

// badgeLabel renders a display badge for one classification, banding
// confidence into tiers. Display only; the hide decision uses the raw
// confidence against the category threshold.
func badgeLabel(c classify.Classification) string {
	tier := "low"
	switch {
	case c.Confidence >= 0.85:
		tier = "high"
	case c.Confidence >= 0.7:
		tier = "medium"
	}
	return fmt.Sprintf("%s:%s", c.Category, tier)
}

// buildCategories derives the classifier's category set from the
// configuration: the built-in categories, with keyword lists overridden
// by config where present, plus any config-only categories (sorted by
// name for deterministic tie order). Wildcard configs never become
// classifier categories. Config-only categories use their keywords as
// exact triggers too, preserving plain substring filtering for
// user-defined keyword lists.
func buildCategories(cfg *settings.Settings) []*classify.Category {
	cats := classify.DefaultCategories()
	known := make(map[string]*classify.Category, len(cats))
	for _, c := range cats {
		known[c.Name] = c
	}

	var extraNames []string
	for name, cc := range cfg.Categories {
		if name == settings.EverythingCategory || isWildcard(cc) {
			continue
		}
		if base, ok := known[name]; ok {
			if len(cc.Keywords) > 0 {
				base.Keywords = cc.Keywords
			}
			continue
		}
		extraNames = append(extraNames, name)
	}
	sort.Strings(extraNames)

	for _, name := range extraNames {
		cc := cfg.Categories[name]
		cats = append(cats, &classify.Category{
			Name:         name,
			Keywords:     cc.Keywords,
			ExactMatches: cc.Keywords,
		})
	}
	return cats
}

// isWildcard reports whether a config uses the unconditional-match keyword.
func isWildcard(c settings.CategoryConfig) bool {
	for _, kw := range c.Keywords {
		if kw == settings.WildcardKeyword {
			return true
		}
	}
	return false
}
