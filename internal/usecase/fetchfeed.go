package usecase

import (
	"context"
	"io"

	"newsdigest/internal/domain"
)

// FeedFetcher определяет интерфейс для загрузки данных лент из внешних источников.
// Возвращает io.ReadCloser который должен быть закрыт после использования.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// FeedParser определяет интерфейс для разбора ленты в доменную модель.
type FeedParser interface {
	Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error)
}

// SourceProcessor загружает одну ленту и возвращает ее свежие новости.
type SourceProcessor interface {
	ProcessSource(ctx context.Context, source domain.FeedSource) ([]domain.NewsItem, error)
}

// ContextLoader отдает действующий контекст закладок или nil.
type ContextLoader interface {
	Load(ctx context.Context) *domain.BookmarkContext
}

// DigestRenderer превращает дайджест в тему и HTML письма.
type DigestRenderer interface {
	Render(d *domain.Digest) (subject string, html string, err error)
}

// Mailer отправляет письмо и возвращает идентификатор доставки.
type Mailer interface {
	Send(ctx context.Context, email domain.Email) (string, error)
}

// RunJournal сохраняет итоги запусков.
type RunJournal interface {
	SaveRun(ctx context.Context, run domain.RunResult) error
}

// Recorder собирает метрики пайплайна.
type Recorder interface {
	ObserveFetch(category string, err error)
	ObserveCategory(category string, items int)
	ObserveRun(status domain.RunStatus)
}

type noopRecorder struct{}

func (noopRecorder) ObserveFetch(string, error)  {}
func (noopRecorder) ObserveCategory(string, int) {}
func (noopRecorder) ObserveRun(domain.RunStatus) {}
