package reconcile

import (
	"sort"

	"matinee/internal/catalog"
	"matinee/internal/textutil"
)

// Result records the outcome of matching one query title against the catalog.
// MatchedKey is empty when no candidate cleared the threshold; Confidence
// still carries the best score seen so callers can report near misses.
type Result struct {
	Query      string
	MatchedKey string
	Confidence float64
}

// Matched reports whether the query resolved to a catalog entry.
func (r Result) Matched() bool {
	return r.MatchedKey != ""
}

// Candidate is one scored catalog entry offered to a Resolver.
type Candidate struct {
	Key     string
	Display string
	Score   float64
}

// Ambiguity describes a query whose best candidate scored below the
// acceptance threshold but at or above the review floor.
type Ambiguity struct {
	Query      string
	Candidates []Candidate
}

// Resolver decides ambiguous matches. Implementations range from interactive
// prompts to a fixed decision table in tests; returning ok=false leaves the
// query unmatched.
type Resolver interface {
	Resolve(a Ambiguity) (key string, ok bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(a Ambiguity) (string, bool)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(a Ambiguity) (string, bool) {
	return f(a)
}

// Matcher resolves query titles against one catalog snapshot.
type Matcher struct {
	catalog     *catalog.Catalog
	threshold   float64
	reviewFloor float64
	resolver    Resolver
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold sets the minimum score for automatic acceptance.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// WithResolver installs a resolver for scores in [reviewFloor, threshold).
func WithResolver(reviewFloor float64, resolver Resolver) Option {
	return func(m *Matcher) {
		m.reviewFloor = reviewFloor
		m.resolver = resolver
	}
}

// DefaultThreshold is the acceptance score used when no option overrides it.
const DefaultThreshold = 0.8

// NewMatcher builds a matcher over a catalog snapshot. The snapshot must not
// change while the matcher is in use.
func NewMatcher(cat *catalog.Catalog, opts ...Option) *Matcher {
	m := &Matcher{
		catalog:   cat,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match scores the query against every catalog entry and returns the best
// candidate if it clears the threshold. Entries are scored in normalized-key
// order, and on tied scores the first entry wins, so results are
// deterministic across runs. An unmatched query is a normal outcome.
func (m *Matcher) Match(query string) Result {
	result := Result{Query: query}
	key := textutil.NormalizeKey(query)
	if key == "" || m.catalog.Len() == 0 {
		return result
	}

	bestKey := ""
	bestScore := 0.0
	for _, entry := range m.catalog.Entries() {
		score := textutil.Ratio(key, entry.Key)
		if score > bestScore {
			bestScore = score
			bestKey = entry.Key
		}
	}
	result.Confidence = bestScore

	if bestKey != "" && bestScore >= m.threshold {
		result.MatchedKey = bestKey
		return result
	}

	if m.resolver != nil && bestScore >= m.reviewFloor && bestScore > 0 {
		if chosen, ok := m.resolver.Resolve(m.ambiguity(query, key)); ok {
			if _, exists := m.catalog.Get(chosen); exists {
				result.MatchedKey = chosen
				result.Confidence = textutil.Ratio(key, chosen)
			}
		}
	}
	return result
}

// MatchAll matches every query in order.
func (m *Matcher) MatchAll(queries []string) []Result {
	results := make([]Result, 0, len(queries))
	for _, query := range queries {
		results = append(results, m.Match(query))
	}
	return results
}

// ambiguity collects every candidate at or above the review floor, best
// first. Duplicate keys collapse to their first (sorted-first) entry.
func (m *Matcher) ambiguity(query, key string) Ambiguity {
	var candidates []Candidate
	seen := make(map[string]struct{})
	for _, entry := range m.catalog.Entries() {
		if _, dup := seen[entry.Key]; dup {
			continue
		}
		score := textutil.Ratio(key, entry.Key)
		if score < m.reviewFloor || score <= 0 {
			continue
		}
		seen[entry.Key] = struct{}{}
		candidates = append(candidates, Candidate{
			Key:     entry.Key,
			Display: entry.DisplayName,
			Score:   score,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Key < candidates[j].Key
	})
	return Ambiguity{Query: query, Candidates: candidates}
}
