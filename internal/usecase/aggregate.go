package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"newsdigest/internal/domain"
	"newsdigest/internal/scoring"
)

const (
	// DefaultConcurrency - сколько лент одной категории загружается одновременно.
	DefaultConcurrency = 10
	// DefaultItemsPerCategory - максимальный размер категории после ранжирования.
	DefaultItemsPerCategory = 10
)

// Aggregator собирает категорию из нескольких лент: параллельная загрузка,
// дедупликация по заголовку, ранжирование и обрезка.
type Aggregator struct {
	processor   SourceProcessor
	concurrency int
	maxItems    int
	recorder    Recorder
	log         *slog.Logger
}

// NewAggregator создает агрегатор. Нулевые лимиты заменяются значениями по умолчанию.
// recorder может быть nil.
func NewAggregator(processor SourceProcessor, concurrency, maxItems int, recorder Recorder, log *slog.Logger) *Aggregator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if maxItems <= 0 {
		maxItems = DefaultItemsPerCategory
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Aggregator{
		processor:   processor,
		concurrency: concurrency,
		maxItems:    maxItems,
		recorder:    recorder,
		log:         log.With(slog.String("component", "aggregator")),
	}
}

// Aggregate загружает все ленты категории и возвращает не более maxItems новостей.
// Ошибка отдельной ленты логируется и не прерывает сбор остальных.
// bc == nil означает сортировку только по дате публикации.
func (a *Aggregator) Aggregate(ctx context.Context, category string, sources []domain.FeedSource, bc *domain.BookmarkContext) domain.CategoryResult {
	start := time.Now()
	log := a.log.With(slog.String("category", category))

	var (
		mu        sync.Mutex
		collected []domain.NewsItem
		failed    int
	)

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for _, src := range sources {
		g.Go(func() error {
			items, err := a.processSafely(ctx, src)
			a.recorder.ObserveFetch(category, err)
			if err != nil {
				log.Warn("Feed failed",
					slog.String("feed", src.Title),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			collected = append(collected, items...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result := Dedupe(collected)
	Rank(result, bc)
	if len(result) > a.maxItems {
		result = result[:a.maxItems]
	}
	a.recorder.ObserveCategory(category, len(result))

	log.Info("Category aggregated",
		slog.Int("sources", len(sources)),
		slog.Int("sources_failed", failed),
		slog.Int("items_collected", len(collected)),
		slog.Int("items", len(result)),
		slog.Duration("duration", time.Since(start)),
	)
	return result
}

// processSafely не дает панике одной ленты уронить весь запуск.
func (a *Aggregator) processSafely(ctx context.Context, src domain.FeedSource) (items []domain.NewsItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing %s: %v", src.Title, r)
		}
	}()
	return a.processor.ProcessSource(ctx, src)
}

// Dedupe оставляет первую новость с каждым заголовком.
// Заголовки сравниваются точно, с учетом регистра.
func Dedupe(items []domain.NewsItem) domain.CategoryResult {
	seen := make(map[string]struct{}, len(items))
	out := make(domain.CategoryResult, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Title]; ok {
			continue
		}
		seen[item.Title] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Rank проставляет RelevanceBoost и сортирует новости на месте:
// сначала по boost, затем от новых к старым. Без контекста у всех
// новостей одинаковый boost, и порядок определяется только датой.
func Rank(items domain.CategoryResult, bc *domain.BookmarkContext) {
	for i := range items {
		items[i].RelevanceBoost = scoring.Score(items[i], bc)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].RelevanceBoost != items[j].RelevanceBoost {
			return items[i].RelevanceBoost > items[j].RelevanceBoost
		}
		return newer(items[i].Published, items[j].Published)
	})
}

// newer сообщает, опубликована ли a строго позже b. Отсутствующая дата
// считается самой ранней.
func newer(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}
