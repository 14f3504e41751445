package normalize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdigest/internal/domain"
)

var testSource = domain.FeedSource{URL: "https://example.com/feed", Title: "Example", Category: "tech"}

func TestTruncate_ShortStringUntouched(t *testing.T) {
	assert.Equal(t, "short summary", Truncate("short summary", 180))
	exact := strings.Repeat("a", 180)
	assert.Equal(t, exact, Truncate(exact, 180))
}

func TestTruncate_250CharsAtWordBoundary(t *testing.T) {
	words := strings.Fields(strings.Repeat("lorem ipsum dolor sit amet consectetur ", 10))
	summary := strings.Join(words, " ")
	summary = summary[:250]
	require.Equal(t, 250, len(summary))

	got := Truncate(summary, 180)

	assert.LessOrEqual(t, utf8.RuneCountInString(got), 180)
	require.True(t, strings.HasSuffix(got, "..."))
	body := strings.TrimSuffix(got, "...")
	assert.True(t, strings.HasPrefix(summary, body))
	// The character after the kept text in the input must be a space: no word was split.
	assert.Equal(t, byte(' '), summary[len(body)])
	for _, w := range strings.Fields(body) {
		assert.Contains(t, words, w)
	}
}

func TestTruncate_CutLandingOnSpace(t *testing.T) {
	s := strings.Repeat("x", 177) + " tail words here"
	assert.Equal(t, strings.Repeat("x", 177)+"...", Truncate(s, 180))
}

func TestTruncate_SingleHugeWord(t *testing.T) {
	got := Truncate(strings.Repeat("y", 300), 180)
	assert.Equal(t, 180, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestTruncate_CountsRunesNotBytes(t *testing.T) {
	s := strings.Repeat("привет ", 40)
	got := Truncate(s, 180)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 180)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "привет..."))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello world & friends", StripHTML(`<p>Hello <b>world</b> &amp; friends</p>`))
	assert.Equal(t, "Line one Line two", StripHTML("<div>Line one<br/>\n  </div><div>Line two</div>"))
	assert.Equal(t, "visible", StripHTML(`<script>alert(1)</script><span>visible</span>`))
	assert.Equal(t, "plain text", StripHTML("  plain \n text "))
	assert.Equal(t, "", StripHTML(""))
}

func TestNormalizer_Item_Fallbacks(t *testing.T) {
	entry := &gofeed.Item{Updated: "2024-05-01T10:00:00Z", Content: "<p>From content</p>"}

	item := New(0).Item(entry, testSource)

	assert.Equal(t, domain.PlaceholderTitle, item.Title)
	assert.Equal(t, domain.PlaceholderLink, item.Link)
	assert.Equal(t, "From content", item.Summary)
	assert.Equal(t, "2024-05-01T10:00:00Z", item.PublishedRaw)
	assert.Equal(t, "Example", item.Source)
	assert.Equal(t, 1.0, item.RelevanceBoost)
	assert.Empty(t, item.Image)
}

func TestNormalizer_Item_PrefersPublishedAndDescription(t *testing.T) {
	entry := &gofeed.Item{
		Title:       "  Title  ",
		Link:        "https://example.com/a",
		Description: "<p>Description wins</p>",
		Content:     "<p>Content loses</p>",
		Published:   "Wed, 01 May 2024 10:00:00 +0000",
		Updated:     "2024-05-01T11:00:00Z",
	}

	item := New(0).Item(entry, testSource)

	assert.Equal(t, "Title", item.Title)
	assert.Equal(t, "https://example.com/a", item.Link)
	assert.Equal(t, "Description wins", item.Summary)
	assert.Equal(t, "Wed, 01 May 2024 10:00:00 +0000", item.PublishedRaw)
}

func mediaExt(name string, attrs map[string]string) ext.Extensions {
	return ext.Extensions{"media": {name: {{Name: name, Attrs: attrs}}}}
}

func TestFirstImage_Priority(t *testing.T) {
	full := &gofeed.Item{
		Extensions: ext.Extensions{"media": {
			"content":   {{Name: "content", Attrs: map[string]string{"url": "https://img/media.jpg", "medium": "image"}}},
			"thumbnail": {{Name: "thumbnail", Attrs: map[string]string{"url": "https://img/thumb.jpg"}}},
		}},
		Enclosures:  []*gofeed.Enclosure{{URL: "https://img/enc.jpg", Type: "image/jpeg"}},
		Content:     `<p><img src="https://img/content.jpg"></p>`,
		Description: `<img src="https://img/summary.jpg">`,
	}
	strategies := DefaultImageStrategies()

	assert.Equal(t, "https://img/media.jpg", FirstImage(full, strategies))

	full.Extensions = mediaExt("thumbnail", map[string]string{"url": "https://img/thumb.jpg"})
	assert.Equal(t, "https://img/thumb.jpg", FirstImage(full, strategies))

	full.Extensions = nil
	assert.Equal(t, "https://img/enc.jpg", FirstImage(full, strategies))

	full.Enclosures = nil
	assert.Equal(t, "https://img/content.jpg", FirstImage(full, strategies))

	full.Content = ""
	assert.Equal(t, "https://img/summary.jpg", FirstImage(full, strategies))

	full.Description = "no images here"
	assert.Equal(t, "", FirstImage(full, strategies))
}

func TestFirstImage_SkipsNonImageMedia(t *testing.T) {
	entry := &gofeed.Item{
		Extensions: mediaExt("content", map[string]string{"url": "https://cdn/video.mp4", "type": "video/mp4"}),
		Enclosures: []*gofeed.Enclosure{
			{URL: "https://cdn/episode.mp3", Type: "audio/mpeg"},
			{URL: "https://cdn/cover.png", Type: "image/png"},
		},
	}

	assert.Equal(t, "https://cdn/cover.png", FirstImage(entry, DefaultImageStrategies()))
}

func TestFirstImage_ItemImageCountsAsThumbnail(t *testing.T) {
	entry := &gofeed.Item{Image: &gofeed.Image{URL: "https://cdn/item.jpg"}}
	assert.Equal(t, "https://cdn/item.jpg", FirstImage(entry, DefaultImageStrategies()))
}

func TestNormalizer_Item_SummaryTruncated(t *testing.T) {
	entry := &gofeed.Item{Title: "Long", Description: "<p>" + strings.Repeat("word ", 60) + "</p>"}

	item := New(0).Item(entry, testSource)

	assert.LessOrEqual(t, utf8.RuneCountInString(item.Summary), DefaultSummaryLength)
	assert.True(t, strings.HasSuffix(item.Summary, "word..."))
}
