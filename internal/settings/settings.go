// Package settings holds the externally-owned filter configuration:
// per-category enablement and thresholds, keyword lists, and the
// whitelist. A Settings value is an immutable snapshot, replaced
// wholesale on every reload so readers always see a consistent state.
package settings

import "strings"

// EverythingCategory is the wildcard config: when enabled it hides all
// non-whitelisted content without consulting the classifier.
const EverythingCategory = "everything"

// WildcardKeyword marks a category as matching unconditionally.
const WildcardKeyword = "*"

// DefaultThreshold applies when a category config leaves Threshold unset.
const DefaultThreshold = 0.6

// CategoryConfig is the per-category filter configuration.
type CategoryConfig struct {
	Enabled   bool     `json:"enabled"`
	Threshold float32  `json:"threshold"`
	Keywords  []string `json:"keywords"`
}

// EffectiveThreshold returns the configured threshold, or the default
// when unset.
func (c CategoryConfig) EffectiveThreshold() float32 {
	if c.Threshold <= 0 {
		return DefaultThreshold
	}
	return c.Threshold
}

// Whitelist names channels and video ids that are always shown,
// overriding every classification including everything mode.
type Whitelist struct {
	Channels []string `json:"channels"`
	Videos   []string `json:"videos"`
}

// HasChannel reports whether a channel is whitelisted, case-insensitive.
func (w Whitelist) HasChannel(channel string) bool {
	if channel == "" {
		return false
	}
	for _, c := range w.Channels {
		if strings.EqualFold(c, channel) {
			return true
		}
	}
	return false
}

// HasVideo reports whether a video id is whitelisted.
func (w Whitelist) HasVideo(id string) bool {
	if id == "" {
		return false
	}
	for _, v := range w.Videos {
		if v == id {
			return true
		}
	}
	return false
}

// Settings is one complete configuration snapshot.
type Settings struct {
	Categories map[string]CategoryConfig `json:"categories"`
	Whitelist  Whitelist                 `json:"whitelist"`
}

// EverythingEnabled reports whether the wildcard category is on.
func (s *Settings) EverythingEnabled() bool {
	if s == nil {
		return false
	}
	return s.Categories[EverythingCategory].Enabled
}

// Default returns the shipped configuration: a combined
// entertainment-and-politics "distraction" category, the wildcard
// "everything" category, and the four topical categories, all disabled.
func Default() *Settings {
	return &Settings{
		Categories: map[string]CategoryConfig{
			"distraction": {
				Enabled:   false,
				Threshold: 0.6,
				Keywords: []string{
					"entertainment", "celebrity", "gossip", "viral", "funny", "comedy",
					"meme", "challenge", "reaction", "reacts", "prank", "drama", "tv",
					"music", "movie", "dance", "cover", "gaming", "minecraft",
					"fortnite", "trending", "vlog", "fun", "unboxing", "reviewing",
					"ranking", "exploring", "commenting", "parody",
					"politics", "debate", "election", "government", "policy", "trump",
					"biden", "congress", "democracy", "news", "analysis", "scandal",
					"protest", "freedom", "laws", "activism", "speech", "campaign",
					"reacting", "explaining", "discussing", "criticizing", "supporting",
				},
			},
			EverythingCategory: {
				Enabled:   false,
				Threshold: 0.1,
				Keywords:  []string{WildcardKeyword},
			},
			"entertainment": {
				Keywords: []string{"movie", "music", "trailer", "comedy", "show", "series", "episode", "dance", "concert", "artist"},
			},
			"politics": {
				Keywords: []string{"election", "senate", "government", "policy", "debate", "campaign", "law", "vote", "congress", "minister"},
			},
			"technology": {
				Keywords: []string{"tech", "gadgets", "review", "software", "hardware", "ai", "machine learning", "programming", "coding", "development"},
			},
			"sports": {
				Keywords: []string{"football", "basketball", "soccer", "cricket", "tennis", "match", "tournament", "player", "score", "league"},
			},
		},
	}
}
