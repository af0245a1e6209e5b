// Package classify scores text fragments against a fixed set of topical
// categories.
//
// Two paths produce a classification: an exact-match fast path (a trigger
// word appearing anywhere in the lowercased text) and a semantic fallback
// (cosine similarity between the fragment's mean embedding and the
// category's prototype vector). Exact matches win and carry a fixed high
// confidence; vector matches carry the raw similarity.
package classify

import (
	"sort"
	"strings"

	"github.com/abelbrown/sift/internal/embed"
)

// ExactConfidence is the fixed confidence assigned to exact-match hits,
// independent of any vector similarity.
const ExactConfidence = 0.95

// DefaultThreshold is the minimum cosine similarity for a vector match.
const DefaultThreshold = 0.6

// MatchType distinguishes how a classification was produced.
type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchVector MatchType = "vector"
)

// Classification is one category's score for a text fragment.
type Classification struct {
	Category   string
	Confidence float32
	Match      MatchType
}

// Category is a topical category: a keyword list defining its prototype
// vector and an optional set of exact-match trigger words.
type Category struct {
	Name         string
	Keywords     []string
	ExactMatches []string

	prototype embed.Vector
}

// Prototype returns the category's derived prototype vector.
// Nil until the classifier has built prototypes.
func (c *Category) Prototype() embed.Vector {
	return c.prototype
}

// Classifier scores fragments against its categories.
// Safe for concurrent reads once built; categories are replaced
// wholesale, never patched.
type Classifier struct {
	table      *embed.Table
	categories []*Category
}

// New creates a Classifier over the given embedding table and builds
// category prototypes. Category order is preserved and breaks
// confidence ties in Classify results. A nil or unloaded table yields a
// not-ready classifier that classifies nothing.
func New(table *embed.Table, categories []*Category) *Classifier {
	c := &Classifier{table: table}
	c.SetCategories(categories)
	return c
}

// Ready reports whether the classifier can produce classifications.
func (c *Classifier) Ready() bool {
	return c != nil && c.table.Ready()
}

// Categories returns the classifier's categories in declaration order.
func (c *Classifier) Categories() []*Category {
	return c.categories
}

// SetCategories replaces the category set and recomputes all prototypes.
// Required whenever keyword lists change; prototypes are cached until then.
func (c *Classifier) SetCategories(categories []*Category) {
	c.categories = categories
	for _, cat := range c.categories {
		cat.prototype = c.computePrototype(cat)
	}
}

// computePrototype derives a category's prototype vector: the mean of
// the embeddings of its keywords present in the table. Categories with
// no matched keyword get the zero vector, which compares as similarity
// 0 with everything.
func (c *Classifier) computePrototype(cat *Category) embed.Vector {
	var found []embed.Vector
	for _, kw := range cat.Keywords {
		if v, ok := c.table.Lookup(kw); ok {
			found = append(found, v)
		}
	}
	return embed.Mean(found)
}

// Classify scores text against every category and returns the matches
// sorted by confidence descending. Ties keep category declaration order.
//
// Returns nil when the classifier is not ready; callers must treat that
// as "retry later", not "no match". Empty text yields no matches.
func (c *Classifier) Classify(text string, threshold float32) []Classification {
	if !c.Ready() {
		return nil
	}

	lower := strings.ToLower(text)
	var results []Classification
	var textVec embed.Vector // computed lazily, most fragments match nothing

	for _, cat := range c.categories {
		if exactHit(lower, cat.ExactMatches) {
			results = append(results, Classification{
				Category:   cat.Name,
				Confidence: ExactConfidence,
				Match:      MatchExact,
			})
			continue
		}

		if textVec == nil {
			textVec = c.table.TextVector(text)
		}
		// A zero similarity means no signal at all (unknown text or a
		// prototype with no known keywords), so it never matches, even
		// under a zero threshold.
		sim := embed.CosineSimilarity(textVec, cat.prototype)
		if sim > 0 && sim >= threshold {
			results = append(results, Classification{
				Category:   cat.Name,
				Confidence: sim,
				Match:      MatchVector,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// exactHit reports whether any trigger word appears as a substring of
// the lowercased text.
func exactHit(lower string, triggers []string) bool {
	for _, trig := range triggers {
		if trig == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(trig)) {
			return true
		}
	}
	return false
}
