// Package bookmarks загружает контекст закладок, подготовленный сборщиком,
// и отбрасывает его, если он устарел или поврежден.
package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"newsdigest/internal/domain"
	"newsdigest/internal/freshness"
)

// DefaultMaxAgeHours - сколько часов контекст считается действительным.
const DefaultMaxAgeHours = 24

// DefaultReminderCount - сколько закладок попадает в блок напоминаний.
const DefaultReminderCount = 3

// ArtifactReader отдает сырой JSON артефакта закладок.
// Если артефакта нет, возвращает ошибку, обернутую над domain.ErrNoBookmarkContext.
type ArtifactReader interface {
	ReadArtifact(ctx context.Context) ([]byte, error)
}

// ContextObserver получает итог загрузки: loaded, missing, stale или malformed.
type ContextObserver interface {
	ObserveBookmarkContext(state string)
}

// Provider загружает BookmarkContext. Ошибки никогда не возвращаются наружу:
// отсутствие контекста неотличимо от выключенной персонализации.
type Provider struct {
	reader   ArtifactReader
	maxAge   time.Duration
	now      func() time.Time
	log      *slog.Logger
	observer ContextObserver
}

// NewProvider создает Provider. maxAgeHours <= 0 заменяется на DefaultMaxAgeHours.
func NewProvider(reader ArtifactReader, maxAgeHours int, now func() time.Time, log *slog.Logger) *Provider {
	if maxAgeHours <= 0 {
		maxAgeHours = DefaultMaxAgeHours
	}
	if now == nil {
		now = time.Now
	}
	return &Provider{
		reader: reader,
		maxAge: time.Duration(maxAgeHours) * time.Hour,
		now:    now,
		log:    log.With(slog.String("component", "bookmarks")),
	}
}

// WithObserver подключает наблюдателя за результатами загрузки.
func (p *Provider) WithObserver(o ContextObserver) *Provider {
	p.observer = o
	return p
}

// Load возвращает действующий контекст закладок или nil.
func (p *Provider) Load(ctx context.Context) *domain.BookmarkContext {
	const op = "bookmarks.Load"
	log := p.log.With(slog.String("op", op))

	raw, err := p.reader.ReadArtifact(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoBookmarkContext) {
			log.Info("Bookmark context not available, personalization disabled")
			p.observe("missing")
			return nil
		}
		log.Warn("Failed to read bookmark context", slog.Any("error", err))
		p.observe("malformed")
		return nil
	}

	bc, err := Decode(raw)
	if err != nil {
		log.Warn("Bookmark context is malformed, ignoring it", slog.Any("error", err))
		p.observe("malformed")
		return nil
	}

	age := p.now().Sub(bc.SyncedAt)
	if age > p.maxAge {
		log.Info("Bookmark context is stale, ignoring it",
			slog.Time("synced_at", bc.SyncedAt),
			slog.Duration("age", age),
		)
		p.observe("stale")
		return nil
	}

	log.Info("Bookmark context loaded",
		slog.Int("keywords", len(bc.Keywords)),
		slog.Int("bookmarks", bc.BookmarkCount),
	)
	p.observe("loaded")
	return bc
}

func (p *Provider) observe(state string) {
	if p.observer != nil {
		p.observer.ObserveBookmarkContext(state)
	}
}

type artifactJSON struct {
	SyncedAt        *string            `json:"synced_at"`
	WindowHours     int                `json:"window_hours"`
	BookmarkCount   int                `json:"bookmark_count"`
	Keywords        []keywordJSON      `json:"keywords"`
	CategoryBoosts  map[string]float64 `json:"category_boosts"`
	RecentBookmarks []domain.Bookmark  `json:"recent_bookmarks"`
}

type keywordJSON struct {
	Word     string  `json:"word"`
	Count    *int    `json:"count"`
	Category *string `json:"category"`
}

// Decode разбирает артефакт закладок. synced_at обязателен; count по умолчанию равен 1.
func Decode(raw []byte) (*domain.BookmarkContext, error) {
	var doc artifactJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode bookmark context: %w", err)
	}
	if doc.SyncedAt == nil {
		return nil, errors.New("bookmark context has no synced_at")
	}
	syncedAt, ok := freshness.ParseTimestamp(*doc.SyncedAt)
	if !ok {
		return nil, fmt.Errorf("invalid synced_at: %q", *doc.SyncedAt)
	}

	keywords := make([]domain.Keyword, 0, len(doc.Keywords))
	for _, kw := range doc.Keywords {
		count := 1
		if kw.Count != nil {
			count = *kw.Count
		}
		keywords = append(keywords, domain.Keyword{
			Word:     kw.Word,
			Count:    count,
			Category: kw.Category,
		})
	}

	return &domain.BookmarkContext{
		SyncedAt:        syncedAt,
		WindowHours:     doc.WindowHours,
		BookmarkCount:   doc.BookmarkCount,
		Keywords:        keywords,
		CategoryBoosts:  doc.CategoryBoosts,
		RecentBookmarks: doc.RecentBookmarks,
	}, nil
}

// Reminders возвращает первые limit закладок для блока напоминаний.
// Свежесть закладок здесь не проверяется.
func Reminders(bc *domain.BookmarkContext, limit int) []domain.Bookmark {
	if bc == nil || limit <= 0 {
		return nil
	}
	if len(bc.RecentBookmarks) <= limit {
		return bc.RecentBookmarks
	}
	return bc.RecentBookmarks[:limit]
}
