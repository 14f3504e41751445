// Package scoring считает множитель релевантности новости по ключевым словам из закладок.
package scoring

import (
	"math"
	"strings"

	"newsdigest/internal/domain"
)

const (
	perCountBoost   = 0.2
	maxKeywordBoost = 0.5
	maxBoost        = 2.0
)

// Score возвращает множитель в диапазоне [1.0, 2.0].
// Без контекста закладок результат ровно 1.0. Каждое совпавшее слово добавляет
// min(0.2*count, 0.5); сумма обрезается сверху до 2.0.
func Score(item domain.NewsItem, bc *domain.BookmarkContext) float64 {
	if bc == nil {
		return domain.NeutralBoost
	}
	text := strings.ToLower(item.Title) + " " + strings.ToLower(item.Summary)
	boost := domain.NeutralBoost
	for _, kw := range bc.Keywords {
		word := strings.ToLower(kw.Word)
		if word == "" || !strings.Contains(text, word) {
			continue
		}
		boost += keywordBoost(kw.Count)
	}
	return math.Min(boost, maxBoost)
}

// keywordBoost не дает отрицательного вклада при битом count.
func keywordBoost(count int) float64 {
	return math.Max(0, math.Min(perCountBoost*float64(count), maxKeywordBoost))
}
