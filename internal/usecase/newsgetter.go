package usecase

import (
	"context"
	"fmt"

	"newsdigest/internal/domain"
)

// DigestBuilder собирает дайджест без доставки.
type DigestBuilder interface {
	Build(ctx context.Context, categories []string) *domain.Digest
}

// PreviewUseCase реализует предпросмотр дайджеста для API.
// Ничего не отправляет и не сохраняет.
type PreviewUseCase struct {
	builder  DigestBuilder
	renderer DigestRenderer
}

// NewPreviewUseCase создает новый экземпляр UseCase для предпросмотра.
func NewPreviewUseCase(builder DigestBuilder, renderer DigestRenderer) *PreviewUseCase {
	return &PreviewUseCase{builder: builder, renderer: renderer}
}

// GetDigest возвращает собранный дайджест по выбранным категориям.
func (uc *PreviewUseCase) GetDigest(ctx context.Context, categories []string) *domain.Digest {
	return uc.builder.Build(ctx, categories)
}

// RenderDigest собирает дайджест и возвращает тему и HTML письма.
func (uc *PreviewUseCase) RenderDigest(ctx context.Context, categories []string) (string, string, error) {
	subject, html, err := uc.renderer.Render(uc.builder.Build(ctx, categories))
	if err != nil {
		return "", "", fmt.Errorf("failed to render preview: %w", err)
	}
	return subject, html, nil
}
