package collector

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"newsdigest/internal/domain"
)

// MinKeywordCount - слово попадает в контекст, только если встретилось не реже.
const MinKeywordCount = 2

// CategoryHint связывает категорию со словами-подсказками.
type CategoryHint struct {
	Category string
	Hints    []string
}

// DefaultCategoryHints - таблица подсказок. Порядок важен: побеждает первая подходящая категория.
var DefaultCategoryHints = []CategoryHint{
	{Category: "ai_tech", Hints: []string{"claude", "anthropic", "openai", "gpt", "llm", "ai", "cursor", "copilot", "gemini"}},
	{Category: "tech_apple", Hints: []string{"swift", "swiftui", "ios", "apple", "xcode", "iphone", "mac", "wwdc"}},
	{Category: "dev_tools", Hints: []string{"github", "vscode", "terminal", "cli", "api", "docker", "git"}},
	{Category: "news", Hints: []string{"breaking", "just in", "update"}},
}

var (
	hashtagRe = regexp.MustCompile(`#(\w+)`)
	wordRe    = regexp.MustCompile(`\b[a-z]{4,}\b`)
)

// ExtractKeywords считает хэштеги и слова от четырех букв во всех закладках.
// Хэштеги сохраняют исходный регистр, слова берутся из текста в нижнем регистре.
// Возвращает слова, встретившиеся не меньше MinKeywordCount раз, по убыванию частоты;
// при равной частоте сохраняется порядок первого появления.
func ExtractKeywords(bookmarks []domain.Bookmark, hints []CategoryHint) []domain.Keyword {
	texts := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		texts = append(texts, b.Text)
	}
	all := strings.Join(texts, " ")

	var tokens []string
	for _, m := range hashtagRe.FindAllStringSubmatch(all, -1) {
		tokens = append(tokens, m[1])
	}
	tokens = append(tokens, wordRe.FindAllString(strings.ToLower(all), -1)...)

	counts := make(map[string]int, len(tokens))
	var order []string
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	keywords := make([]domain.Keyword, 0)
	for _, word := range order {
		if counts[word] < MinKeywordCount {
			continue
		}
		keywords = append(keywords, domain.Keyword{
			Word:     word,
			Count:    counts[word],
			Category: Categorize(word, hints),
		})
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})
	return keywords
}

// Categorize возвращает первую категорию, подсказка которой совпадает со словом
// или входит в него подстрокой. nil, если категория не найдена.
func Categorize(word string, hints []CategoryHint) *string {
	w := strings.ToLower(word)
	for _, h := range hints {
		for _, hint := range h.Hints {
			if w == hint || strings.Contains(w, hint) {
				category := h.Category
				return &category
			}
		}
	}
	return nil
}

// CalculateCategoryBoosts суммирует частоты слов по категориям и переводит их
// в диапазон [1.0, 2.0]: самая частая категория получает 2.0.
// Значения округлены до одного знака.
func CalculateCategoryBoosts(keywords []domain.Keyword) map[string]float64 {
	scores := make(map[string]int)
	for _, kw := range keywords {
		if kw.Category != nil {
			scores[*kw.Category] += kw.Count
		}
	}
	boosts := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return boosts
	}
	maxScore := 0
	for _, s := range scores {
		maxScore = max(maxScore, s)
	}
	if maxScore <= 0 {
		return boosts
	}
	for category, s := range scores {
		boosts[category] = math.RoundToEven((1+float64(s)/float64(maxScore))*10) / 10
	}
	return boosts
}
