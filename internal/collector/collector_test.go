package collector

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdigest/internal/bookmarks"
	"newsdigest/internal/domain"
)

var collectNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func keywordMap(kws []domain.Keyword) map[string]domain.Keyword {
	out := make(map[string]domain.Keyword, len(kws))
	for _, kw := range kws {
		out[kw.Word] = kw
	}
	return out
}

func TestExtractKeywords_CountsAndCategories(t *testing.T) {
	bms := []domain.Bookmark{
		{Text: "Claude is great for swiftui work #AI"},
		{Text: "More claude tips for swiftui tips #AI"},
		{Text: "docker compose tricks, docker everywhere"},
		{Text: "once"},
	}

	kws := ExtractKeywords(bms, DefaultCategoryHints)
	byWord := keywordMap(kws)

	require.Contains(t, byWord, "AI")
	assert.Equal(t, 2, byWord["AI"].Count)
	assert.Equal(t, "ai_tech", *byWord["AI"].Category)

	assert.Equal(t, 2, byWord["claude"].Count)
	assert.Equal(t, "ai_tech", *byWord["claude"].Category)
	assert.Equal(t, "tech_apple", *byWord["swiftui"].Category)
	assert.Equal(t, 3, byWord["docker"].Count)
	assert.Equal(t, "dev_tools", *byWord["docker"].Category)

	require.Contains(t, byWord, "tips")
	assert.Nil(t, byWord["tips"].Category)
	assert.NotContains(t, byWord, "once")
	assert.NotContains(t, byWord, "is")

	assert.Equal(t, "docker", kws[0].Word)
	for i := 1; i < len(kws); i++ {
		assert.GreaterOrEqual(t, kws[i-1].Count, kws[i].Count)
	}
}

func TestExtractKeywords_TiesKeepFirstAppearance(t *testing.T) {
	bms := []domain.Bookmark{{Text: "zeta alpha zeta alpha #Tag #Tag"}}

	kws := ExtractKeywords(bms, DefaultCategoryHints)

	require.Len(t, kws, 3)
	assert.Equal(t, "Tag", kws[0].Word)
	assert.Equal(t, "zeta", kws[1].Word)
	assert.Equal(t, "alpha", kws[2].Word)
}

func TestExtractKeywords_Empty(t *testing.T) {
	kws := ExtractKeywords(nil, DefaultCategoryHints)
	assert.NotNil(t, kws)
	assert.Empty(t, kws)
}

func TestCategorize_FirstCategoryWins(t *testing.T) {
	// "maintain" contains "ai" as a substring, so ai_tech wins before anything else.
	assert.Equal(t, "ai_tech", *Categorize("maintain", DefaultCategoryHints))
	assert.Equal(t, "tech_apple", *Categorize("macbook", DefaultCategoryHints))
	assert.Equal(t, "dev_tools", *Categorize("GitHub", DefaultCategoryHints))
	assert.Equal(t, "news", *Categorize("updates", DefaultCategoryHints))
	assert.Nil(t, Categorize("bread", DefaultCategoryHints))
}

func TestCalculateCategoryBoosts_HalvesRoundToEven(t *testing.T) {
	kws := []domain.Keyword{
		{Word: "claude", Count: 4, Category: strPtr("ai_tech")},
		{Word: "election", Count: 1, Category: strPtr("news")},
	}

	boosts := CalculateCategoryBoosts(kws)

	assert.Equal(t, map[string]float64{"ai_tech": 2.0, "news": 1.2}, boosts)
}

func TestCalculateCategoryBoosts(t *testing.T) {
	kws := []domain.Keyword{
		{Word: "claude", Count: 6, Category: strPtr("ai_tech")},
		{Word: "llm", Count: 4, Category: strPtr("ai_tech")},
		{Word: "swift", Count: 5, Category: strPtr("tech_apple")},
		{Word: "docker", Count: 3, Category: strPtr("dev_tools")},
		{Word: "bread", Count: 9},
	}

	boosts := CalculateCategoryBoosts(kws)

	assert.Equal(t, map[string]float64{
		"ai_tech":    2.0,
		"tech_apple": 1.5,
		"dev_tools":  1.3,
	}, boosts)
	assert.Empty(t, CalculateCategoryBoosts(nil))
	assert.NotNil(t, CalculateCategoryBoosts(nil))
}

type failingSink struct{}

func (failingSink) WriteArtifact(context.Context, []byte) error { return errors.New("disk full") }

func TestCollect_WritesArtifactReadableByProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmark_context.json")
	store := bookmarks.NewFileStore(path)
	now := func() time.Time { return collectNow }
	c := New([]ArtifactWriter{store}, 24, now, discardLogger())

	input := []domain.Bookmark{
		{Text: "Claude <b>rocks</b> & claude again", Author: "@a", URL: "https://x/1", Timestamp: strPtr(collectNow.Add(-time.Hour).Format(time.RFC3339))},
		{Text: "old claude post", Author: "@b", Timestamp: strPtr(collectNow.Add(-48 * time.Hour).Format(time.RFC3339))},
		{Text: "undated claude", Author: "@c"},
		{Text: "", Author: "@d"},
		{Text: "no author"},
	}

	bc, err := c.Collect(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 2, bc.BookmarkCount)
	assert.Equal(t, collectNow, bc.SyncedAt)

	raw, err := store.ReadArtifact(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "\n  \"window_hours\": 24"))
	assert.Contains(t, string(raw), "<b>rocks</b> &")
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "2024-05-01T12:00:00Z", generic["synced_at"])

	loaded := bookmarks.NewProvider(store, 24, now, discardLogger()).Load(context.Background())
	require.NotNil(t, loaded)
	assert.Equal(t, 2, loaded.BookmarkCount)
	require.NotEmpty(t, loaded.Keywords)
	assert.Equal(t, "claude", loaded.Keywords[0].Word)
	assert.Equal(t, 3, loaded.Keywords[0].Count)
	assert.Equal(t, 2.0, loaded.CategoryBoosts["ai_tech"])
	assert.Len(t, loaded.RecentBookmarks, 2)
}

func TestCollect_SinkFailure(t *testing.T) {
	c := New([]ArtifactWriter{failingSink{}}, 0, func() time.Time { return collectNow }, discardLogger())

	bc, err := c.Collect(context.Background(), []domain.Bookmark{{Text: "x", Author: "y"}})

	assert.Nil(t, bc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCollect_EmptyExportStillWritesArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctx.json")
	store := bookmarks.NewFileStore(path)
	c := New([]ArtifactWriter{store}, 0, func() time.Time { return collectNow }, discardLogger())

	bc, err := c.Collect(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, bc.BookmarkCount)
	raw, err := store.ReadArtifact(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"keywords": []`)
	assert.Contains(t, string(raw), `"recent_bookmarks": []`)
	assert.Contains(t, string(raw), `"category_boosts": {}`)
}

func TestLoadExport(t *testing.T) {
	bms, err := LoadExport(strings.NewReader(`[
		{"text": "hello", "author": "@a", "url": "https://x/1", "timestamp": "2024-05-01T10:00:00+00:00"},
		{"text": "bye", "author": "@b", "url": "https://x/2", "timestamp": null}
	]`))

	require.NoError(t, err)
	require.Len(t, bms, 2)
	assert.Equal(t, "2024-05-01T10:00:00+00:00", *bms[0].Timestamp)
	assert.Nil(t, bms[1].Timestamp)

	_, err = LoadExport(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}
