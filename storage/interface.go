package storage

import (
	"context"

	"newsdigest/internal/domain"
)

// Storage определяет общий интерфейс хранилища: артефакт закладок и журнал запусков.
// Сами новости не сохраняются, каждый запуск собирает их заново.
type Storage interface {
	ReadArtifact(ctx context.Context) ([]byte, error)
	WriteArtifact(ctx context.Context, doc []byte) error
	SaveRun(ctx context.Context, run domain.RunResult) error
	RecentRuns(ctx context.Context, n int) ([]domain.RunResult, error)
	Close()
}
