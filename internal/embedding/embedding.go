// Package embedding provides a local, deterministic skill vectorizer.
//
// Embeddings are computed with hashed character trigram and word features
// rather than a remote model: the enrichment idempotence invariant requires
// that the same raw name always maps to the same vector, independent of which
// branch produced the categorical attributes.
package embedding

import (
	"hash/fnv"
	"math"
	"strings"
)

// Dim is the fixed embedding dimension.
const Dim = 128

// Embed maps text to an L2-normalized vector of Dim hashed features. The zero
// vector is returned only for text with no usable tokens.
func Embed(text string) []float32 {
	vec := make([]float32, Dim)
	tokens := strings.Fields(strings.ToLower(text))
	for _, tok := range tokens {
		addFeature(vec, "w:"+tok, 1.0)
		padded := "^" + tok + "$"
		for i := 0; i+3 <= len(padded); i++ {
			addFeature(vec, "t:"+padded[i:i+3], 0.5)
		}
	}
	normalize(vec)
	return vec
}

func addFeature(vec []float32, feature string, weight float32) {
	h := fnv.New32a()
	h.Write([]byte(feature))
	sum := h.Sum32()
	idx := sum % Dim
	// The high bit selects the sign so hash collisions cancel in expectation.
	if sum&0x80000000 != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func normalize(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	inv := 1 / math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}

// Cosine computes similarity between two vectors, in [-1, 1]. Mismatched or
// zero-norm vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
