package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"newsdigest/internal/domain"
)

// ImageStrategy пытается найти картинку записи одним способом.
type ImageStrategy struct {
	Name    string
	Extract func(entry *domain.Entry) (string, bool)
}

// DefaultImageStrategies возвращает стратегии в порядке приоритета:
// media:content, миниатюра, вложение-картинка, <img> в контенте, <img> в описании.
func DefaultImageStrategies() []ImageStrategy {
	return []ImageStrategy{
		{Name: "media_content", Extract: mediaContentImage},
		{Name: "thumbnail", Extract: thumbnailImage},
		{Name: "enclosure", Extract: enclosureImage},
		{Name: "content_img", Extract: func(e *domain.Entry) (string, bool) { return inlineImage(e.Content) }},
		{Name: "summary_img", Extract: func(e *domain.Entry) (string, bool) { return inlineImage(e.Description) }},
	}
}

// FirstImage возвращает результат первой сработавшей стратегии или пустую строку.
func FirstImage(entry *domain.Entry, strategies []ImageStrategy) string {
	for _, s := range strategies {
		if url, ok := s.Extract(entry); ok {
			return url
		}
	}
	return ""
}

func mediaContentImage(entry *domain.Entry) (string, bool) {
	media := entry.Extensions["media"]
	if media == nil {
		return "", false
	}
	candidates := media["content"]
	for _, group := range media["group"] {
		candidates = append(candidates, group.Children["content"]...)
	}
	for _, c := range candidates {
		url := strings.TrimSpace(c.Attrs["url"])
		if url == "" {
			continue
		}
		medium, typ := c.Attrs["medium"], c.Attrs["type"]
		if medium == "image" || strings.HasPrefix(typ, "image/") || (medium == "" && typ == "") {
			return url, true
		}
	}
	return "", false
}

func thumbnailImage(entry *domain.Entry) (string, bool) {
	if media := entry.Extensions["media"]; media != nil {
		for _, th := range media["thumbnail"] {
			if url := strings.TrimSpace(th.Attrs["url"]); url != "" {
				return url, true
			}
		}
	}
	if entry.Image != nil && strings.TrimSpace(entry.Image.URL) != "" {
		return strings.TrimSpace(entry.Image.URL), true
	}
	return "", false
}

func enclosureImage(entry *domain.Entry) (string, bool) {
	for _, enc := range entry.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") {
			return enc.URL, true
		}
	}
	return "", false
}

func inlineImage(markup string) (string, bool) {
	if !strings.Contains(markup, "<img") {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false
	}
	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		found = strings.TrimSpace(src)
		return found == ""
	})
	return found, found != ""
}
