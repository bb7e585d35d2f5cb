package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRoundTrip(t *testing.T) {
	t.Parallel()

	for _, id := range Categories() {
		label, ok := id.Label()
		require.True(t, ok, "id %d has no label", id)

		resolved, ok := LookupCategory(label)
		require.True(t, ok, "label %q does not resolve", label)
		assert.Equal(t, id, resolved)

		back, _ := resolved.Label()
		assert.Equal(t, label, back)
	}
}

func TestLookupCategoryAliases(t *testing.T) {
	t.Parallel()

	tests := map[string]CategoryID{
		"경제":         CategoryEconomy,
		"증권":         CategoryMarkets,
		"IT":         CategoryTechnology,
		"  Sports  ": CategorySports,
		"POLITICS":   CategoryPolitics,
		"오피니언":       CategoryOpinion,
	}

	for label, want := range tests {
		got, ok := LookupCategory(label)
		assert.True(t, ok, label)
		assert.Equal(t, want, got, label)
	}
}

func TestResolveCategoryFallsBack(t *testing.T) {
	t.Parallel()

	_, ok := LookupCategory("weather")
	assert.False(t, ok)
	assert.Equal(t, CategoryUncategorized, ResolveCategory("weather"))
	assert.Equal(t, CategoryUncategorized, ResolveCategory(""))
}

func TestLabelUnknownID(t *testing.T) {
	t.Parallel()

	_, ok := CategoryID(42).Label()
	assert.False(t, ok)
	assert.False(t, CategoryNone.Valid())
	assert.Equal(t, "none", CategoryNone.String())
}

func TestCandidateToStoredAppliesDefaultCategory(t *testing.T) {
	t.Parallel()

	stored := ArticleCandidate{URL: "https://a/1", Title: "T"}.ToStored()
	assert.Equal(t, CategoryUncategorized, stored.CategoryID)

	stored = ArticleCandidate{URL: "https://a/1", Title: "T", CategoryID: CategorySports}.ToStored()
	assert.Equal(t, CategorySports, stored.CategoryID)
}

func TestCandidateValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, ArticleCandidate{URL: "https://a/1", Title: "T"}.Validate())
	assert.ErrorIs(t, ArticleCandidate{Title: "T"}.Validate(), ErrInvalidArticle)
	assert.ErrorIs(t, ArticleCandidate{URL: "https://a/1", Title: "  "}.Validate(), ErrInvalidArticle)
}
