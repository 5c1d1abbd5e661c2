package similarity

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokens are runs of at least two letters, digits or underscores
var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// term is one non-zero component of a sparse vector
type term struct {
	index  int
	weight float64
}

// vector is a sparse, L2-normalised TF-IDF vector sorted by term index
type vector []term

// Tokenize lowercases text and splits it into terms
func Tokenize(text string) []string {
	return tokenRegex.FindAllString(strings.ToLower(text), -1)
}

// fitTransform builds the vocabulary over all documents and returns one
// vector per document. Weights are raw term frequency times the smoothed
// inverse document frequency ln((1+n)/(1+df)) + 1.
func fitTransform(documents []string) ([]vector, map[string]int) {
	tokenized := make([][]string, len(documents))
	vocabulary := make(map[string]int)
	var documentFrequency []int

	for i, doc := range documents {
		tokens := Tokenize(doc)
		tokenized[i] = tokens

		seen := make(map[int]bool, len(tokens))
		for _, token := range tokens {
			idx, ok := vocabulary[token]
			if !ok {
				idx = len(vocabulary)
				vocabulary[token] = idx
				documentFrequency = append(documentFrequency, 0)
			}
			if !seen[idx] {
				seen[idx] = true
				documentFrequency[idx]++
			}
		}
	}

	n := float64(len(documents))
	idf := make([]float64, len(documentFrequency))
	for i, df := range documentFrequency {
		idf[i] = math.Log((1+n)/(1+float64(df))) + 1
	}

	vectors := make([]vector, len(documents))
	for i, tokens := range tokenized {
		counts := make(map[int]int, len(tokens))
		for _, token := range tokens {
			counts[vocabulary[token]]++
		}

		vec := make(vector, 0, len(counts))
		var norm float64
		for idx, count := range counts {
			weight := float64(count) * idf[idx]
			vec = append(vec, term{index: idx, weight: weight})
			norm += weight * weight
		}
		sort.Slice(vec, func(a, b int) bool { return vec[a].index < vec[b].index })

		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range vec {
				vec[j].weight /= norm
			}
		}
		vectors[i] = vec
	}

	return vectors, vocabulary
}

// cosine returns the cosine similarity of two normalised vectors.
// Empty vectors have no direction and score 0 against everything.
func cosine(a, b vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var dot float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].index == b[j].index:
			dot += a[i].weight * b[j].weight
			i++
			j++
		case a[i].index < b[j].index:
			i++
		default:
			j++
		}
	}

	return dot
}
