// Package embed provides the static word embedding table and similarity math
// used by the classifier.
package embed

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

// Dim is the dimensionality of every vector in the table.
const Dim = 50

// Vector is a fixed-length word embedding.
type Vector []float32

// Table maps lowercase words to their embedding vectors.
// Built once by Load and read-only afterward.
type Table struct {
	vectors map[string]Vector
	ready   bool
}

// Load reads a flat JSON mapping of word -> []float32 from path.
// Returns an error (and a not-ready table) if the resource cannot be
// read or parsed, or if any vector has the wrong length.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embedding table: %w", err)
	}
	return Parse(data)
}

// Parse builds a Table from raw JSON bytes.
func Parse(data []byte) (*Table, error) {
	var raw map[string][]float32
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse embedding table: %w", err)
	}

	vectors := make(map[string]Vector, len(raw))
	for word, vals := range raw {
		if len(vals) != Dim {
			return nil, fmt.Errorf("embedding for %q has %d dimensions, want %d", word, len(vals), Dim)
		}
		vectors[strings.ToLower(word)] = Vector(vals)
	}

	return &Table{vectors: vectors, ready: true}, nil
}

// NewTable builds a table directly from a word -> vector map.
// Vectors with the wrong length are dropped.
func NewTable(words map[string]Vector) *Table {
	vectors := make(map[string]Vector, len(words))
	for word, vec := range words {
		if len(vec) != Dim {
			continue
		}
		vectors[strings.ToLower(word)] = vec
	}
	return &Table{vectors: vectors, ready: true}
}

// Ready reports whether the table has been loaded.
func (t *Table) Ready() bool {
	return t != nil && t.ready
}

// Len returns the number of words in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.vectors)
}

// Lookup returns the vector for a word, case-insensitive.
func (t *Table) Lookup(word string) (Vector, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.vectors[strings.ToLower(word)]
	return v, ok
}

// TextVector computes the element-wise mean of the embeddings of all
// known tokens in text. Unknown tokens are skipped; if no token is
// known, the zero vector is returned.
func (t *Table) TextVector(text string) Vector {
	vec := make(Vector, Dim)
	count := 0

	for _, word := range Tokenize(text) {
		wv, ok := t.Lookup(word)
		if !ok {
			continue
		}
		for i := range vec {
			vec[i] += wv[i]
		}
		count++
	}

	if count > 0 {
		for i := range vec {
			vec[i] /= float32(count)
		}
	}

	return vec
}

// Mean computes the element-wise mean of the given vectors.
// Returns the zero vector when the input is empty.
func Mean(vectors []Vector) Vector {
	mean := make(Vector, Dim)
	if len(vectors) == 0 {
		return mean
	}
	for _, v := range vectors {
		for i := range mean {
			mean[i] += v[i]
		}
	}
	for i := range mean {
		mean[i] /= float32(len(vectors))
	}
	return mean
}

// Tokenize splits text into lowercase word tokens on any run of
// non-alphanumeric characters. No stemming, no stop words.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		}
		return true
	})
}

// CosineSimilarity computes similarity between two embeddings.
// Returns 1.0 for identical vectors, 0.0 for orthogonal vectors.
// Returns 0.0 if vectors have different lengths, are zero-length, or
// either has zero magnitude. Never returns NaN.
func CosineSimilarity(a, b Vector) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	// Handle zero vectors
	if normA == 0 || normB == 0 {
		return 0.0
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}
