package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmcdole/gofeed"

	"newsdigest/internal/domain"
)

// FeedParser разбирает RSS, Atom и JSON Feed через gofeed.
// gofeed терпим к битой разметке, поэтому ошибка означает совсем нечитаемый ответ.
type FeedParser struct {
	log *slog.Logger
}

func NewFeedParser(log *slog.Logger) *FeedParser {
	return &FeedParser{
		log: log.With(slog.String("component", "parser")),
	}
}

// Parse реализует метод интерфейса usecase.FeedParser.
func (p *FeedParser) Parse(ctx context.Context, reader io.Reader) (*domain.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, err := gofeed.NewParser().Parse(reader)
	if err != nil {
		p.log.Warn("Error decoding feed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	entries := make([]*domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item != nil {
			entries = append(entries, item)
		}
	}
	return &domain.Feed{
		Title:   parsed.Title,
		Link:    parsed.Link,
		Entries: entries,
	}, nil
}
