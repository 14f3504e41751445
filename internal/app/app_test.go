package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdigest/internal/config"
	"newsdigest/internal/domain"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rssServer(t *testing.T) *httptest.Server {
	t.Helper()
	body := fmt.Sprintf(`<?xml version="1.0"?><rss version="2.0"><channel><title>Wire</title>
<item><title>Swift 6 released</title><link>https://example.com/swift</link><description>&lt;p&gt;New &lt;b&gt;Swift&lt;/b&gt; compiler&lt;/p&gt;</description><pubDate>%s</pubDate></item>
<item><title>Old news</title><link>https://example.com/old</link><description>Yesterday's story</description><pubDate>%s</pubDate></item>
</channel></rss>`,
		testNow.Add(-time.Hour).Format(time.RFC1123Z),
		testNow.Add(-48*time.Hour).Format(time.RFC1123Z),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type sentEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func resendServer(t *testing.T, got *sentEmail) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Write([]byte(`{"id":"email-1"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, feedURL string) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.App.Feeds = map[string][]config.FeedSource{
		"tech_apple": {{URL: feedURL, Title: "Wire"}},
	}
	cfg.Bookmarks.Path = filepath.Join(t.TempDir(), "bookmark_context.json")
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	require.NoError(t, cfg.Validate())
	a, err := New(context.Background(), cfg, discardLogger(), WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestApp_Preview(t *testing.T) {
	a := newTestApp(t, testConfig(t, rssServer(t).URL))

	var out bytes.Buffer
	subject, err := a.Preview(context.Background(), nil, &out)
	require.NoError(t, err)

	assert.Equal(t, "News Digest: Swift 6 released", subject)
	assert.Contains(t, out.String(), "Swift 6 released")
	assert.Contains(t, out.String(), "New Swift compiler")
	assert.NotContains(t, out.String(), "Old news")
	assert.NotContains(t, out.String(), "From Your Bookmarks")
}

func TestApp_CollectThenPreviewShowsReminders(t *testing.T) {
	cfg := testConfig(t, rssServer(t).URL)
	a := newTestApp(t, cfg)

	export := `[
		{"text": "Reading about #swift and swift concurrency", "author": "dev", "url": "https://example.com/b1", "timestamp": "2024-05-01T10:00:00Z"},
		{"text": "No author here", "author": "", "url": "https://example.com/b2", "timestamp": null}
	]`
	bc, err := a.Collect(context.Background(), strings.NewReader(export))
	require.NoError(t, err)
	assert.Equal(t, 1, bc.BookmarkCount)
	assert.FileExists(t, cfg.Bookmarks.Path)

	var out bytes.Buffer
	_, err = a.Preview(context.Background(), nil, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "From Your Bookmarks")
	assert.Contains(t, out.String(), "Reading about #swift and swift concurrency")
}

func TestApp_Send(t *testing.T) {
	var got sentEmail
	cfg := testConfig(t, rssServer(t).URL)
	cfg.Delivery.APIURL = resendServer(t, &got).URL
	cfg.Delivery.APIKey = "test-key"
	cfg.Delivery.From = "digest@example.com"
	cfg.Delivery.Recipients = []string{"me@example.com"}
	a := newTestApp(t, cfg)

	result, err := a.Send(context.Background(), nil, []string{"other@example.com"})
	require.NoError(t, err)

	assert.Equal(t, domain.RunDelivered, result.Status)
	assert.Equal(t, "email-1", result.DeliveryID)
	assert.Equal(t, 1, result.ItemCount)
	assert.Equal(t, testNow, result.FinishedAt)
	assert.Equal(t, []string{"other@example.com"}, got.To)
	assert.Equal(t, "digest@example.com", got.From)
	assert.Equal(t, "News Digest: Swift 6 released", got.Subject)
}

func TestApp_SendSkipsWithoutFreshContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`))
	}))
	defer srv.Close()
	delivered := false
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered = true
	}))
	defer api.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Delivery.APIURL = api.URL
	cfg.Delivery.APIKey = "test-key"
	cfg.Delivery.From = "digest@example.com"
	cfg.Delivery.Recipients = []string{"me@example.com"}
	a := newTestApp(t, cfg)

	result, err := a.Send(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSkipped, result.Status)
	assert.False(t, delivered)
}

func TestApp_SendRequiresDeliveryConfig(t *testing.T) {
	a := newTestApp(t, testConfig(t, "http://127.0.0.1:1/feed"))

	_, err := a.Send(context.Background(), nil, []string{"me@example.com"})
	assert.ErrorContains(t, err, "invalid delivery config")

	a.config.Delivery.APIKey = "test-key"
	a.config.Delivery.From = "digest@example.com"
	_, err = a.Send(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "no recipients")
}

func TestApp_HandlerServesDigest(t *testing.T) {
	a := newTestApp(t, testConfig(t, rssServer(t).URL))
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/digest?category=tech_apple")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var digest domain.Digest
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&digest))
	require.Len(t, digest.Categories["tech_apple"], 1)
	assert.Equal(t, "1h ago", digest.Categories["tech_apple"][0].AgeLabel)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `newsdigest_source_fetch_total{category="tech_apple",result="ok"} 1`)
}

func TestApp_CollectRejectsBadExport(t *testing.T) {
	a := newTestApp(t, testConfig(t, "http://127.0.0.1:1/feed"))

	_, err := a.Collect(context.Background(), strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
	_, statErr := os.Stat(a.config.Bookmarks.Path)
	assert.True(t, os.IsNotExist(statErr))
}
