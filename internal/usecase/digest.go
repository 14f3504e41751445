package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"newsdigest/internal/bookmarks"
	"newsdigest/internal/domain"
	"newsdigest/internal/freshness"
)

// ReasonNoFreshContent - причина пропуска рассылки, когда нечего отправлять.
const ReasonNoFreshContent = "no fresh content"

// CategoryAggregator собирает одну категорию дайджеста.
type CategoryAggregator interface {
	Aggregate(ctx context.Context, category string, sources []domain.FeedSource, bc *domain.BookmarkContext) domain.CategoryResult
}

// DigestOptions - параметры сборки и доставки дайджеста.
type DigestOptions struct {
	Feeds         map[string][]domain.FeedSource
	Order         []string
	Recipients    []string
	ReminderCount int
}

// DigestUseCase собирает дайджест по всем категориям и отправляет его.
type DigestUseCase struct {
	opts       DigestOptions
	aggregator CategoryAggregator
	contexts   ContextLoader
	checker    *freshness.Checker
	renderer   DigestRenderer
	mailer     Mailer
	recorder   Recorder
	journal    RunJournal
	log        *slog.Logger
}

// NewDigestUseCase создает UseCase рассылки. contexts, mailer и recorder могут быть nil:
// без contexts ранжирование идет только по дате, без mailer доступна лишь сборка.
func NewDigestUseCase(
	opts DigestOptions,
	aggregator CategoryAggregator,
	contexts ContextLoader,
	checker *freshness.Checker,
	renderer DigestRenderer,
	mailer Mailer,
	recorder Recorder,
	log *slog.Logger,
) *DigestUseCase {
	if opts.ReminderCount <= 0 {
		opts.ReminderCount = bookmarks.DefaultReminderCount
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &DigestUseCase{
		opts:       opts,
		aggregator: aggregator,
		contexts:   contexts,
		checker:    checker,
		renderer:   renderer,
		mailer:     mailer,
		recorder:   recorder,
		log:        log.With(slog.String("component", "digest")),
	}
}

// WithJournal подключает журнал запусков. Ошибка записи в журнал не влияет на итог запуска.
func (uc *DigestUseCase) WithJournal(j RunJournal) *DigestUseCase {
	uc.journal = j
	return uc
}

// Build собирает дайджест по указанным категориям в порядке конфигурации.
// Пустой список означает все категории, неизвестные пропускаются.
// Контекст закладок загружается один раз на сборку.
func (uc *DigestUseCase) Build(ctx context.Context, categories []string) *domain.Digest {
	var bc *domain.BookmarkContext
	if uc.contexts != nil {
		bc = uc.contexts.Load(ctx)
	}

	digest := &domain.Digest{
		GeneratedAt: uc.checker.Now(),
		Categories:  make(map[string]domain.CategoryResult),
		Reminders:   bookmarks.Reminders(bc, uc.opts.ReminderCount),
	}
	for _, category := range uc.selectCategories(categories) {
		items := uc.aggregator.Aggregate(ctx, category, uc.opts.Feeds[category], bc)
		// Метки возраста пересчитываются на момент сборки, а не загрузки ленты.
		for i := range items {
			items[i].AgeLabel = uc.checker.AgeLabel(items[i].PublishedRaw)
		}
		digest.Order = append(digest.Order, category)
		digest.Categories[category] = items
	}
	return digest
}

func (uc *DigestUseCase) selectCategories(requested []string) []string {
	if len(requested) == 0 {
		return uc.opts.Order
	}
	wanted := make(map[string]bool, len(requested))
	for _, c := range requested {
		if _, ok := uc.opts.Feeds[c]; !ok {
			uc.log.Warn("Unknown category requested", slog.String("category", c))
			continue
		}
		wanted[c] = true
	}
	selected := make([]string, 0, len(wanted))
	for _, c := range uc.opts.Order {
		if wanted[c] {
			selected = append(selected, c)
		}
	}
	return selected
}

// Run выполняет один полный запуск: сборку, рендер и доставку.
// При пустом дайджесте письмо не отправляется и возвращается статус skipped.
// recipients переопределяет получателей из конфигурации, если не пуст.
func (uc *DigestUseCase) Run(ctx context.Context, categories []string, recipients []string) (domain.RunResult, error) {
	start := time.Now()
	result := domain.RunResult{RunID: uuid.NewString()}
	log := uc.log.With(slog.String("run_id", result.RunID))
	log.Info("Digest run started")

	digest := uc.Build(ctx, categories)
	result.ItemCount = digest.ItemCount()

	if result.ItemCount == 0 {
		result.Status = domain.RunSkipped
		result.Reason = ReasonNoFreshContent
		uc.finish(ctx, &result)
		log.Info("Digest skipped", slog.String("reason", result.Reason))
		return result, nil
	}

	id, err := uc.deliver(ctx, digest, recipients)
	if err != nil {
		result.Status = domain.RunFailed
		result.Reason = err.Error()
		uc.finish(ctx, &result)
		return result, err
	}

	result.Status = domain.RunDelivered
	result.DeliveryID = id
	uc.finish(ctx, &result)
	log.Info("Digest delivered",
		slog.String("delivery_id", id),
		slog.Int("items", result.ItemCount),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (uc *DigestUseCase) deliver(ctx context.Context, digest *domain.Digest, recipients []string) (string, error) {
	if len(recipients) == 0 {
		recipients = uc.opts.Recipients
	}
	if uc.mailer == nil || len(recipients) == 0 {
		return "", fmt.Errorf("delivery is not configured")
	}
	subject, html, err := uc.renderer.Render(digest)
	if err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	id, err := uc.mailer.Send(ctx, domain.Email{To: recipients, Subject: subject, HTML: html})
	if err != nil {
		return "", fmt.Errorf("failed to deliver digest: %w", err)
	}
	return id, nil
}

// finish фиксирует время окончания, метрики и запись в журнал.
func (uc *DigestUseCase) finish(ctx context.Context, result *domain.RunResult) {
	result.FinishedAt = uc.checker.Now()
	uc.recorder.ObserveRun(result.Status)
	if uc.journal == nil {
		return
	}
	if err := uc.journal.SaveRun(ctx, *result); err != nil {
		uc.log.Warn("Failed to record run",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()),
		)
	}
}
