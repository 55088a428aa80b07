package embedding

import (
	"hash/fnv"
	"math"
	"strings"
)

// DeterministicHasher is a dependency-free Provider for tests and for
// deployments without a live embedding backend. It hashes each lowercased
// word of the input into one of Dim buckets and L2-normalizes the result,
// giving a stable bag-of-words embedding: identical inputs always produce
// identical vectors, and similar inputs (shared vocabulary) land closer
// together than dissimilar ones.
type DeterministicHasher struct{}

// NewDeterministicHasher returns a ready-to-use stub Provider.
func NewDeterministicHasher() *DeterministicHasher { return &DeterministicHasher{} }

// Embed implements Provider.
func (DeterministicHasher) Embed(text string) ([]float32, error) {
	vec := make([]float32, Dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, w := range words {
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		bucket := int(h.Sum32() % uint32(Dim))
		vec[bucket]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec, nil
}
