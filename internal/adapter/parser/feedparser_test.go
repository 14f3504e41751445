package parser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser() *FeedParser {
	return NewFeedParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFeedParser_Parse_RSS(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
	<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
	<channel>
	<title>Test Feed</title>
	<link>https://example.com</link>
	<description>Test Description</description>
	<item>
	<title>Item 1</title>
	<link>https://example.com/item1</link>
	<description>Item 1 Description</description>
	<pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
	<media:thumbnail url="https://example.com/thumb.jpg"/>
	</item>
	<item>
	<title>Item 2</title>
	<link>https://example.com/item2</link>
	<description>Item 2 Description</description>
	<pubDate>Tue, 03 Jan 2006 12:00:00 GMT</pubDate>
	</item>
	</channel>
	</rss>`

	feed, err := newTestParser().Parse(context.Background(), strings.NewReader(xmlData))

	require.NoError(t, err)
	require.NotNil(t, feed)
	assert.Equal(t, "Test Feed", feed.Title)
	assert.Equal(t, "https://example.com", feed.Link)
	require.Len(t, feed.Entries, 2)

	assert.Equal(t, "Item 1", feed.Entries[0].Title)
	assert.Equal(t, "https://example.com/item1", feed.Entries[0].Link)
	assert.Equal(t, "Item 1 Description", feed.Entries[0].Description)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", feed.Entries[0].Published)
	assert.NotEmpty(t, feed.Entries[0].Extensions["media"]["thumbnail"])

	assert.Equal(t, "Item 2", feed.Entries[1].Title)
}

func TestFeedParser_Parse_Atom(t *testing.T) {
	xmlData := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <entry>
    <title>Alpha Entry</title>
    <link href="https://example.com/alpha"/>
    <updated>2024-01-01T12:00:00Z</updated>
    <summary>Alpha summary</summary>
  </entry>
</feed>`

	feed, err := newTestParser().Parse(context.Background(), strings.NewReader(xmlData))

	require.NoError(t, err)
	require.Len(t, feed.Entries, 1)
	assert.Equal(t, "Alpha Entry", feed.Entries[0].Title)
	assert.Equal(t, "https://example.com/alpha", feed.Entries[0].Link)
	assert.Equal(t, "2024-01-01T12:00:00Z", feed.Entries[0].Updated)
	assert.Equal(t, "Alpha summary", feed.Entries[0].Description)
}

func TestFeedParser_Parse_NotAFeed(t *testing.T) {
	feed, err := newTestParser().Parse(context.Background(), strings.NewReader("this is plainly not a feed"))

	assert.Error(t, err)
	assert.Nil(t, feed)
	assert.Contains(t, err.Error(), "failed to decode feed")
}

func TestFeedParser_Parse_ContextCancelled(t *testing.T) {
	xmlData := `<rss><channel><title>Test Feed</title></channel></rss>`
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	feed, err := newTestParser().Parse(ctx, strings.NewReader(xmlData))

	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, feed)
}

func TestFeedParser_Parse_EmptyFeed(t *testing.T) {
	xmlData := `<rss version="2.0">
	<channel>
	<title>Empty Feed</title>
	<link>https://example.com</link>
	<description>Empty Description</description>
	</channel>
	</rss>`

	feed, err := newTestParser().Parse(context.Background(), strings.NewReader(xmlData))

	require.NoError(t, err)
	require.NotNil(t, feed)
	assert.Equal(t, "Empty Feed", feed.Title)
	assert.Empty(t, feed.Entries)
}
