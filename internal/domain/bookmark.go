package domain

import (
	"errors"
	"time"
)

// ErrNoBookmarkContext возвращается хранилищами, когда артефакт закладок еще не создан.
var ErrNoBookmarkContext = errors.New("bookmark context not found")

// Keyword - ключевое слово, извлеченное из закладок.
// Category равна nil, если слово не попало ни в одну категорию.
type Keyword struct {
	Word     string  `json:"word"`
	Count    int     `json:"count"`
	Category *string `json:"category"`
}

// Bookmark - одна закладка из выгрузки.
type Bookmark struct {
	Text      string  `json:"text"`
	Author    string  `json:"author"`
	URL       string  `json:"url"`
	Timestamp *string `json:"timestamp"`
}

// BookmarkContext - сигнал персонализации, который готовит сборщик закладок.
// Для агрегатора только читается; nil означает отсутствие контекста.
type BookmarkContext struct {
	SyncedAt        time.Time          `json:"synced_at"`
	WindowHours     int                `json:"window_hours"`
	BookmarkCount   int                `json:"bookmark_count"`
	Keywords        []Keyword          `json:"keywords"`
	CategoryBoosts  map[string]float64 `json:"category_boosts"`
	RecentBookmarks []Bookmark         `json:"recent_bookmarks"`
}
