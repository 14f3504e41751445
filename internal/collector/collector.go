// Package collector превращает выгрузку закладок в артефакт контекста:
// ключевые слова, веса категорий и последние закладки.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/freshness"
)

// DefaultWindowHours - какие закладки считаются недавними.
const DefaultWindowHours = 24

// ArtifactWriter сохраняет готовый JSON артефакта.
type ArtifactWriter interface {
	WriteArtifact(ctx context.Context, doc []byte) error
}

// Collector строит BookmarkContext и записывает его во все хранилища.
type Collector struct {
	sinks       []ArtifactWriter
	hints       []CategoryHint
	windowHours int
	now         func() time.Time
	log         *slog.Logger
}

// New создает Collector. windowHours <= 0 заменяется на DefaultWindowHours,
// now == nil на time.Now.
func New(sinks []ArtifactWriter, windowHours int, now func() time.Time, log *slog.Logger) *Collector {
	if windowHours <= 0 {
		windowHours = DefaultWindowHours
	}
	if now == nil {
		now = time.Now
	}
	return &Collector{
		sinks:       sinks,
		hints:       DefaultCategoryHints,
		windowHours: windowHours,
		now:         now,
		log:         log.With(slog.String("component", "collector")),
	}
}

// Collect отбирает закладки за окно, извлекает ключевые слова и веса категорий
// и записывает артефакт. Закладки без текста или автора отбрасываются,
// закладки без даты сохраняются.
func (c *Collector) Collect(ctx context.Context, bookmarks []domain.Bookmark) (*domain.BookmarkContext, error) {
	now := c.now().UTC()
	recent := c.filterWindow(bookmarks, now)

	keywords := ExtractKeywords(recent, c.hints)
	bc := &domain.BookmarkContext{
		SyncedAt:        now,
		WindowHours:     c.windowHours,
		BookmarkCount:   len(recent),
		Keywords:        keywords,
		CategoryBoosts:  CalculateCategoryBoosts(keywords),
		RecentBookmarks: recent,
	}

	doc, err := Encode(bc)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, sink := range c.sinks {
		if err := sink.WriteArtifact(ctx, doc); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to write bookmark context: %w", err)
	}

	c.log.Info("Bookmark context written",
		slog.Int("bookmarks", bc.BookmarkCount),
		slog.Int("keywords", len(bc.Keywords)),
		slog.Int("sinks", len(c.sinks)),
	)
	return bc, nil
}

func (c *Collector) filterWindow(bookmarks []domain.Bookmark, now time.Time) []domain.Bookmark {
	cutoff := now.Add(-time.Duration(c.windowHours) * time.Hour)
	recent := make([]domain.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if strings.TrimSpace(b.Text) == "" || strings.TrimSpace(b.Author) == "" {
			continue
		}
		if b.Timestamp != nil {
			if ts, ok := freshness.ParseTimestamp(*b.Timestamp); ok && ts.Before(cutoff) {
				c.log.Debug("Skipping old bookmark", slog.String("timestamp", *b.Timestamp))
				continue
			}
		}
		recent = append(recent, b)
	}
	return recent
}

// Encode сериализует контекст в JSON с отступом в два пробела без экранирования HTML.
func Encode(bc *domain.BookmarkContext) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bc); err != nil {
		return nil, fmt.Errorf("failed to encode bookmark context: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadExport читает выгрузку закладок: JSON-массив {text, author, url, timestamp}.
func LoadExport(r io.Reader) ([]domain.Bookmark, error) {
	var bookmarks []domain.Bookmark
	if err := json.NewDecoder(r).Decode(&bookmarks); err != nil {
		return nil, fmt.Errorf("failed to decode bookmark export: %w", err)
	}
	return bookmarks, nil
}
