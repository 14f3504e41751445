package domain

import (
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	// PlaceholderTitle подставляется, если у записи ленты нет заголовка.
	PlaceholderTitle = "No title"
	// PlaceholderLink подставляется, если у записи ленты нет ссылки.
	PlaceholderLink = "#"
	// NeutralBoost - множитель релевантности без персонализации.
	NeutralBoost = 1.0
)

// FeedSource описывает одну RSS/Atom-ленту из конфигурации.
// Загружается один раз за запуск и дальше только читается.
type FeedSource struct {
	URL      string
	Title    string
	Category string
}

// Entry - сырая запись ленты в том виде, в котором её вернул парсер.
// Любое поле может отсутствовать.
type Entry = gofeed.Item

// Feed представляет разобранную ленту с метаданными и списком записей.
type Feed struct {
	Title   string
	Link    string
	Entries []*Entry
}

// NewsItem - нормализованная новость, центральная сущность пайплайна.
// Ключ дедупликации - точный заголовок (с учетом регистра).
type NewsItem struct {
	Title          string     `json:"title"`
	Link           string     `json:"link"`
	Summary        string     `json:"summary"`
	PublishedRaw   string     `json:"published_raw,omitempty"`
	Published      *time.Time `json:"published,omitempty"`
	AgeLabel       string     `json:"age_label,omitempty"`
	Source         string     `json:"source"`
	Image          string     `json:"image,omitempty"`
	RelevanceBoost float64    `json:"relevance_boost"`
}

// CategoryResult - отранжированный список новостей одной категории.
// Пересобирается с нуля при каждом запуске.
type CategoryResult []NewsItem
