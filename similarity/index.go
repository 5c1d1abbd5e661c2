// Package similarity ranks medicines by how close their compositions are.
// An Index is built once per dataset load and is read-only afterwards, so a
// single Index can serve concurrent lookups without locking.
package similarity

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/giygas/medishortage-api/medicineparser/entities"
)

// DefaultTopK is the number of alternatives returned when k is not positive
const DefaultTopK = 5

// DefaultSuggestionLimit caps autocomplete results when limit is not positive
const DefaultSuggestionLimit = 10

// Index holds the medicines and their composition vectors
type Index struct {
	medicines   []entities.Medicine
	lowerNames  []string
	byName      map[string]int
	vectors     []vector
	vocabulary  map[string]int
	fingerprint string
}

// NewIndex fits the TF-IDF vectorizer over the medicines' compositions.
// The slice is retained and must not be modified afterwards.
func NewIndex(medicines []entities.Medicine) *Index {
	documents := make([]string, len(medicines))
	lowerNames := make([]string, len(medicines))
	byName := make(map[string]int, len(medicines))
	digest := xxhash.New()

	for i, med := range medicines {
		documents[i] = med.Composition
		lowerNames[i] = strings.ToLower(med.Name)
		if _, ok := byName[med.Name]; !ok {
			byName[med.Name] = i
		}
		_, _ = digest.WriteString(med.Name)
		_, _ = digest.WriteString("\x00")
		_, _ = digest.WriteString(med.Composition)
		_, _ = digest.WriteString("\x00")
	}

	vectors, vocabulary := fitTransform(documents)

	return &Index{
		medicines:   medicines,
		lowerNames:  lowerNames,
		byName:      byName,
		vectors:     vectors,
		vocabulary:  vocabulary,
		fingerprint: strconv.FormatUint(digest.Sum64(), 16),
	}
}

// Len returns the number of medicines in the index
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.medicines)
}

// VocabularySize returns the number of distinct composition terms
func (ix *Index) VocabularySize() int {
	if ix == nil {
		return 0
	}
	return len(ix.vocabulary)
}

// Fingerprint identifies the dataset content the index was built from
func (ix *Index) Fingerprint() string {
	if ix == nil {
		return ""
	}
	return ix.fingerprint
}

// Medicines returns the indexed medicines in dataset order. Callers must not modify it.
func (ix *Index) Medicines() []entities.Medicine {
	if ix == nil {
		return []entities.Medicine{}
	}
	return ix.medicines
}

// Contains reports whether name is exactly a catalog name
func (ix *Index) Contains(name string) bool {
	if ix == nil {
		return false
	}
	_, ok := ix.byName[name]
	return ok
}

func (ix *Index) available() bool {
	return ix != nil && len(ix.medicines) > 0
}

// resolve returns the dataset position of the medicine matching name.
// Exact match first, then case-insensitive, then the first substring hit in
// either direction.
func (ix *Index) resolve(name string) (int, error) {
	if !ix.available() {
		return -1, ErrDatasetUnavailable
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return -1, ErrInvalidInput
	}

	if i, ok := ix.byName[name]; ok {
		return i, nil
	}

	lowerName := strings.ToLower(name)
	for i, candidate := range ix.lowerNames {
		if candidate == lowerName {
			return i, nil
		}
	}

	for i, candidate := range ix.lowerNames {
		if strings.Contains(candidate, lowerName) || strings.Contains(lowerName, candidate) {
			return i, nil
		}
	}

	return -1, ErrNotFound
}

// Resolve returns the medicine record matching name
func (ix *Index) Resolve(name string) (entities.Medicine, error) {
	i, err := ix.resolve(name)
	if err != nil {
		return entities.Medicine{}, err
	}
	return ix.medicines[i], nil
}

// FindSimilar returns the matched medicine and up to k other medicines ranked
// by composition similarity. Ties keep dataset order. Rows sharing the matched
// medicine's exact name are never returned as its alternatives.
func (ix *Index) FindSimilar(name string, k int) (entities.Medicine, []entities.Alternative, error) {
	idx, err := ix.resolve(name)
	if err != nil {
		return entities.Medicine{}, nil, err
	}

	if k <= 0 {
		k = DefaultTopK
	}

	type scored struct {
		position int
		score    float64
	}

	query := ix.vectors[idx]
	mainName := ix.medicines[idx].Name
	candidates := make([]scored, 0, len(ix.medicines)-1)
	for j := range ix.medicines {
		if j == idx || ix.medicines[j].Name == mainName {
			continue
		}
		candidates = append(candidates, scored{position: j, score: cosine(query, ix.vectors[j])})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	alternatives := make([]entities.Alternative, 0, len(candidates))
	for _, c := range candidates {
		alternatives = append(alternatives, entities.Alternative{
			Medicine:   ix.medicines[c.position],
			Similarity: toPercent(c.score),
		})
	}

	return ix.medicines[idx], alternatives, nil
}

// toPercent converts a cosine score to the 0-100 scale with two decimals
func toPercent(score float64) float64 {
	percent := math.Round(score*100*100) / 100
	return math.Max(0, math.Min(100, percent))
}

// Suggest returns medicine names containing query (case-insensitive), in dataset order
func (ix *Index) Suggest(query string, limit int) []string {
	suggestions := []string{}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || !ix.available() {
		return suggestions
	}

	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	for i, candidate := range ix.lowerNames {
		if strings.Contains(candidate, query) {
			suggestions = append(suggestions, ix.medicines[i].Name)
			if len(suggestions) == limit {
				break
			}
		}
	}

	return suggestions
}

// Names returns the sorted, de-duplicated medicine names
func (ix *Index) Names() []string {
	if !ix.available() {
		return []string{}
	}

	seen := make(map[string]bool, len(ix.medicines))
	names := make([]string, 0, len(ix.medicines))
	for _, med := range ix.medicines {
		if !seen[med.Name] {
			seen[med.Name] = true
			names = append(names, med.Name)
		}
	}
	sort.Strings(names)

	return names
}
