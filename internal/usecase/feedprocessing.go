package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdigest/internal/adapter/normalize"
	"newsdigest/internal/domain"
	"newsdigest/internal/freshness"
)

// DefaultEntriesPerSource - сколько первых записей ленты просматривается.
// Берется с запасом: фильтр свежести отсекает большую часть.
const DefaultEntriesPerSource = 10

// FeedProcessingUseCase реализует загрузку и нормализацию одной ленты.
// Координирует загрузчик, парсер, нормализатор и фильтр свежести.
type FeedProcessingUseCase struct {
	fetcher    FeedFetcher
	parser     FeedParser
	normalizer *normalize.Normalizer
	checker    *freshness.Checker
	entryLimit int
	log        *slog.Logger
}

// NewFeedProcessingUseCase создает новый экземпляр UseCase для обработки лент.
// entryLimit <= 0 заменяется на DefaultEntriesPerSource.
func NewFeedProcessingUseCase(
	fetcher FeedFetcher,
	parser FeedParser,
	normalizer *normalize.Normalizer,
	checker *freshness.Checker,
	entryLimit int,
	log *slog.Logger,
) *FeedProcessingUseCase {
	if entryLimit <= 0 {
		entryLimit = DefaultEntriesPerSource
	}
	return &FeedProcessingUseCase{
		fetcher:    fetcher,
		parser:     parser,
		normalizer: normalizer,
		checker:    checker,
		entryLimit: entryLimit,
		log:        log,
	}
}

// ProcessSource выполняет полный цикл для одной ленты: загрузку, разбор,
// нормализацию и фильтр свежести. Записи без даты или старше окна пропускаются.
// Ошибка загрузки или разбора возвращается вызывающему коду.
func (uc *FeedProcessingUseCase) ProcessSource(ctx context.Context, source domain.FeedSource) ([]domain.NewsItem, error) {
	start := time.Now()
	log := uc.log.With(
		slog.String("component", "feed-processor"),
		slog.String("feed", source.Title),
		slog.String("url", source.URL),
	)

	reader, err := uc.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %s: %w", source.Title, err)
	}
	defer reader.Close()

	feed, err := uc.parser.Parse(ctx, reader)
	if err != nil {
		return nil, fmt.Errorf("parse failed for %s: %w", source.Title, err)
	}

	entries := feed.Entries
	if len(entries) > uc.entryLimit {
		entries = entries[:uc.entryLimit]
	}

	items := make([]domain.NewsItem, 0, len(entries))
	stale := 0
	for _, entry := range entries {
		item := uc.normalizer.Item(entry, source)
		if !uc.checker.IsFresh(item.PublishedRaw) {
			stale++
			continue
		}
		if published, ok := freshness.ParseTimestamp(item.PublishedRaw); ok {
			item.Published = &published
		}
		item.AgeLabel = uc.checker.AgeLabel(item.PublishedRaw)
		items = append(items, item)
	}

	log.Debug("Feed processed",
		slog.Int("items_found", len(feed.Entries)),
		slog.Int("items_fresh", len(items)),
		slog.Int("items_stale", stale),
		slog.Duration("duration", time.Since(start)),
	)
	return items, nil
}
