package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultShape(t *testing.T) {
	cfg := Default()

	dist, ok := cfg.Categories["distraction"]
	if !ok {
		t.Fatal("no distraction category")
	}
	if dist.Enabled {
		t.Error("distraction enabled by default")
	}
	if dist.Threshold != 0.6 {
		t.Errorf("distraction threshold = %v, want 0.6", dist.Threshold)
	}
	if len(dist.Keywords) == 0 {
		t.Error("distraction has no keywords")
	}

	everything, ok := cfg.Categories[EverythingCategory]
	if !ok {
		t.Fatal("no everything category")
	}
	if everything.Enabled {
		t.Error("everything enabled by default")
	}
	if len(everything.Keywords) != 1 || everything.Keywords[0] != WildcardKeyword {
		t.Errorf("everything keywords = %v, want [*]", everything.Keywords)
	}

	if cfg.EverythingEnabled() {
		t.Error("EverythingEnabled true on defaults")
	}
}

func TestEffectiveThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float32
		want      float32
	}{
		{"unset", 0, 0.6},
		{"negative", -1, 0.6},
		{"explicit", 0.8, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CategoryConfig{Threshold: tt.threshold}
			if got := c.EffectiveThreshold(); got != tt.want {
				t.Errorf("EffectiveThreshold = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWhitelist(t *testing.T) {
	w := Whitelist{
		Channels: []string{"Khan Academy"},
		Videos:   []string{"abc123"},
	}

	if !w.HasChannel("khan academy") {
		t.Error("channel lookup should be case-insensitive")
	}
	if w.HasChannel("") {
		t.Error("empty channel matched")
	}
	if !w.HasVideo("abc123") {
		t.Error("video id not found")
	}
	if w.HasVideo("") {
		t.Error("empty video id matched")
	}
}

func TestFileStoreMissingFileReturnsDefaults(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "settings.json"))

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := cfg.Categories["distraction"]; !ok {
		t.Error("missing file did not load defaults")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewFileStore(path)

	cfg := Default()
	c := cfg.Categories["distraction"]
	c.Enabled = true
	c.Threshold = 0.75
	cfg.Categories["distraction"] = c
	cfg.Whitelist.Channels = []string{"Khan Academy"}

	if err := store.Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := loaded.Categories["distraction"]
	if !got.Enabled || got.Threshold != 0.75 {
		t.Errorf("roundtrip distraction = %+v", got)
	}
	if !loaded.Whitelist.HasChannel("khan academy") {
		t.Error("whitelist lost in roundtrip")
	}

	// Atomic save leaves no temp files behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("settings dir has %d entries, want 1", len(entries))
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path).Load(); err == nil {
		t.Error("Load accepted corrupt settings, want error")
	}
}
