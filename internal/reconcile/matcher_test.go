package reconcile_test

import (
	"os"
	"path/filepath"
	"testing"

	"matinee/internal/catalog"
	"matinee/internal/reconcile"
)

func buildTestCatalog(t *testing.T, titles ...string) *catalog.Catalog {
	t.Helper()
	root := t.TempDir()
	for _, title := range titles {
		if err := os.MkdirAll(filepath.Join(root, "Features", title), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	cat, err := catalog.Scan(root)
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

func TestMatchExactTitleScoresFull(t *testing.T) {
	cat := buildTestCatalog(t, "The Snare", "Gala Night")
	m := reconcile.NewMatcher(cat)

	result := m.Match("The Snare")
	if !result.Matched() {
		t.Fatal("expected match")
	}
	if result.MatchedKey != "thesnare" {
		t.Fatalf("unexpected key: %q", result.MatchedKey)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0, got %f", result.Confidence)
	}
}

func TestMatchToleratesPunctuationAndOrdinals(t *testing.T) {
	cat := buildTestCatalog(t, "The Snare")
	m := reconcile.NewMatcher(cat, reconcile.WithThreshold(0.7))

	result := m.Match("the_snare (1)")
	if !result.Matched() {
		t.Fatalf("expected match, got confidence %f", result.Confidence)
	}
	if result.MatchedKey != "thesnare" {
		t.Fatalf("unexpected key: %q", result.MatchedKey)
	}
	if result.Confidence <= 0.9 {
		t.Fatalf("expected confidence > 0.9, got %f", result.Confidence)
	}
}

func TestMatchNoCandidateReturnsEmptyKey(t *testing.T) {
	cat := buildTestCatalog(t, "The Snare")
	m := reconcile.NewMatcher(cat)

	result := m.Match("Completely Different Title")
	if result.Matched() {
		t.Fatalf("expected no match, got %q", result.MatchedKey)
	}
	if result.Confidence <= 0 {
		t.Fatal("expected best score to be reported for the near miss")
	}
}

func TestMatchEmptyCatalog(t *testing.T) {
	cat := buildTestCatalog(t)
	m := reconcile.NewMatcher(cat)

	result := m.Match("Anything")
	if result.Matched() {
		t.Fatal("expected no match against empty catalog")
	}
	if result.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", result.Confidence)
	}
}

func TestMatchThresholdMonotonicity(t *testing.T) {
	cat := buildTestCatalog(t, "The Snare")

	low := reconcile.NewMatcher(cat, reconcile.WithThreshold(0.7))
	high := reconcile.NewMatcher(cat, reconcile.WithThreshold(0.99))

	query := "the_snare (1)"
	if !low.Match(query).Matched() {
		t.Fatal("expected match at low threshold")
	}
	if high.Match(query).Matched() {
		t.Fatal("raising the threshold must not keep the match")
	}
}

func TestMatchTieBreaksOnSortedKeyOrder(t *testing.T) {
	// Both candidates are one trailing rune away from the query, so both
	// score identically; the key that sorts first must win every run.
	cat := buildTestCatalog(t, "Snarea", "Snareb")
	m := reconcile.NewMatcher(cat, reconcile.WithThreshold(0.5))

	result := m.Match("Snare")
	if !result.Matched() {
		t.Fatalf("expected match, got confidence %f", result.Confidence)
	}
	if result.MatchedKey != "snarea" {
		t.Fatalf("expected sorted-first key to win tie, got %q", result.MatchedKey)
	}
}

func TestMatchResolverDecidesAmbiguousBand(t *testing.T) {
	cat := buildTestCatalog(t, "The Snare")

	var seen reconcile.Ambiguity
	resolver := reconcile.ResolverFunc(func(a reconcile.Ambiguity) (string, bool) {
		seen = a
		return a.Candidates[0].Key, true
	})
	m := reconcile.NewMatcher(cat,
		reconcile.WithThreshold(0.95),
		reconcile.WithResolver(0.5, resolver),
	)

	result := m.Match("the_snare (1)")
	if !result.Matched() {
		t.Fatal("expected resolver to accept the candidate")
	}
	if result.MatchedKey != "thesnare" {
		t.Fatalf("unexpected key: %q", result.MatchedKey)
	}
	if seen.Query != "the_snare (1)" {
		t.Fatalf("resolver saw wrong query: %q", seen.Query)
	}
	if len(seen.Candidates) == 0 || seen.Candidates[0].Display != "The Snare" {
		t.Fatalf("resolver saw wrong candidates: %v", seen.Candidates)
	}
}

func TestMatchResolverDeclineLeavesUnmatched(t *testing.T) {
	cat := buildTestCatalog(t, "The Snare")

	resolver := reconcile.ResolverFunc(func(a reconcile.Ambiguity) (string, bool) {
		return "", false
	})
	m := reconcile.NewMatcher(cat,
		reconcile.WithThreshold(0.95),
		reconcile.WithResolver(0.5, resolver),
	)

	if m.Match("the_snare (1)").Matched() {
		t.Fatal("declined resolution must leave the query unmatched")
	}
}

func TestMatchResolverNotCalledBelowFloor(t *testing.T) {
	cat := buildTestCatalog(t, "The Snare")

	called := false
	resolver := reconcile.ResolverFunc(func(a reconcile.Ambiguity) (string, bool) {
		called = true
		return "", false
	})
	m := reconcile.NewMatcher(cat,
		reconcile.WithThreshold(0.95),
		reconcile.WithResolver(0.9, resolver),
	)

	m.Match("zzzzzz")
	if called {
		t.Fatal("resolver must not run when the best score is below the floor")
	}
}

func TestMatchAllPreservesOrder(t *testing.T) {
	cat := buildTestCatalog(t, "The Snare", "Gala Night")
	m := reconcile.NewMatcher(cat)

	results := m.MatchAll([]string{"Gala Night", "Unknown", "The Snare"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].MatchedKey != "galanight" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Matched() {
		t.Fatalf("expected second result unmatched: %+v", results[1])
	}
	if results[2].MatchedKey != "thesnare" {
		t.Fatalf("unexpected third result: %+v", results[2])
	}
}
