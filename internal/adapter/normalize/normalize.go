// Package normalize превращает сырые записи лент в NewsItem:
// очищает описание от HTML, обрезает его и ищет картинку.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"newsdigest/internal/domain"
)

const (
	// DefaultSummaryLength - максимальная длина описания в символах, включая многоточие.
	DefaultSummaryLength = 180
	ellipsis             = "..."
)

// Normalizer собирает NewsItem из записи ленты.
type Normalizer struct {
	summaryLength int
	images        []ImageStrategy
}

// New создает Normalizer. summaryLength <= 0 заменяется на DefaultSummaryLength.
func New(summaryLength int) *Normalizer {
	if summaryLength <= 0 {
		summaryLength = DefaultSummaryLength
	}
	return &Normalizer{
		summaryLength: summaryLength,
		images:        DefaultImageStrategies(),
	}
}

// Item строит NewsItem. Время публикации и возраст заполняет вызывающий код.
func (n *Normalizer) Item(entry *domain.Entry, source domain.FeedSource) domain.NewsItem {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = domain.PlaceholderTitle
	}
	link := strings.TrimSpace(entry.Link)
	if link == "" {
		link = domain.PlaceholderLink
	}
	rawSummary := entry.Description
	if strings.TrimSpace(rawSummary) == "" {
		rawSummary = entry.Content
	}
	return domain.NewsItem{
		Title:          title,
		Link:           link,
		Summary:        Truncate(StripHTML(rawSummary), n.summaryLength),
		PublishedRaw:   PublishedRaw(entry),
		Source:         source.Title,
		Image:          FirstImage(entry, n.images),
		RelevanceBoost: domain.NeutralBoost,
	}
}

// PublishedRaw возвращает дату публикации, а если ее нет - дату обновления.
func PublishedRaw(entry *domain.Entry) string {
	if p := strings.TrimSpace(entry.Published); p != "" {
		return p
	}
	return strings.TrimSpace(entry.Updated)
}

// StripHTML убирает разметку и схлопывает пробелы.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpaces(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpaces(s)
	}
	doc.Find("script, style").Remove()
	return collapseSpaces(doc.Text())
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate обрезает строку до limit символов (рун) по границе слова и добавляет "...".
// Строки не длиннее limit возвращаются без изменений.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	budget := limit - utf8.RuneCountInString(ellipsis)
	if budget <= 0 {
		return string([]rune(ellipsis)[:limit])
	}
	runes := []rune(s)
	cut := runes[:budget]
	// Если слово разрезано, откатываемся к предыдущему пробелу.
	if !unicode.IsSpace(runes[budget]) {
		if idx := lastSpace(cut); idx > 0 {
			cut = cut[:idx]
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + ellipsis
}

func lastSpace(rs []rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if unicode.IsSpace(rs[i]) {
			return i
		}
	}
	return -1
}
