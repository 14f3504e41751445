// Package render превращает дайджест в HTML письма и тему.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"newsdigest/internal/domain"
)

const (
	DefaultBrand           = "News Digest"
	DefaultSubjectPrefix   = "News Digest"
	DefaultSubjectFallback = "Daily Digest"
	DefaultItemsPerSection = 5
	DefaultSectionColor    = "#a1a1aa"
	DefaultFooter          = "Aggregated from your RSS feeds"

	subjectTitleRunes = 50
	topSummaryRunes   = 200
)

//go:embed templates/digest.html
var templateFS embed.FS

var digestTemplate = template.Must(template.ParseFS(templateFS, "templates/digest.html"))

// Section описывает оформление одной категории в письме.
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// DefaultSections - разделы письма в порядке вывода.
func DefaultSections() []Section {
	return []Section{
		{Key: "tech_apple", Title: "Tech & Apple", Color: "#818cf8"},
		{Key: "news", Title: "Breaking News", Color: "#ef4444"},
		{Key: "dev_tools", Title: "Dev Tools", Color: "#34d399"},
		{Key: "podcasts", Title: "Podcasts", Color: "#a78bfa"},
		{Key: "local_nc", Title: "Local NC", Color: "#fbbf24"},
		{Key: "food", Title: "Food & Dining", Color: "#fb7185"},
	}
}

// Options - настройки оформления письма.
type Options struct {
	Brand              string
	SubjectPrefix      string
	Footer             string
	Sections           []Section
	ItemsPerSection    int
	TopStoryCategories []string
}

// Renderer собирает HTML письма из дайджеста.
type Renderer struct {
	opts Options
}

// New создает Renderer, подставляя значения по умолчанию для пустых настроек.
func New(opts Options) *Renderer {
	if opts.Brand == "" {
		opts.Brand = DefaultBrand
	}
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = DefaultSubjectPrefix
	}
	if opts.Footer == "" {
		opts.Footer = DefaultFooter
	}
	if opts.Sections == nil {
		opts.Sections = DefaultSections()
	}
	if opts.ItemsPerSection <= 0 {
		opts.ItemsPerSection = DefaultItemsPerSection
	}
	if opts.TopStoryCategories == nil {
		opts.TopStoryCategories = []string{"tech_apple", "news"}
	}
	return &Renderer{opts: opts}
}

type sectionView struct {
	Title string
	Color string
	Items domain.CategoryResult
}

type topStoryView struct {
	Title   string
	Link    string
	Summary string
}

type pageView struct {
	Brand     string
	Date      string
	Footer    string
	TopStory  *topStoryView
	Sections  []sectionView
	Reminders []domain.Bookmark
}

// Render возвращает тему и HTML письма.
func (r *Renderer) Render(d *domain.Digest) (string, string, error) {
	page := pageView{
		Brand:     r.opts.Brand,
		Date:      d.GeneratedAt.Format("January 2, 2006"),
		Footer:    r.opts.Footer,
		Sections:  r.sections(d),
		Reminders: d.Reminders,
	}
	if top, ok := r.topStory(d); ok {
		page.TopStory = &topStoryView{
			Title:   top.Title,
			Link:    top.Link,
			Summary: clip(top.Summary, topSummaryRunes),
		}
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, page); err != nil {
		return "", "", fmt.Errorf("failed to execute digest template: %w", err)
	}
	return r.Subject(d), buf.String(), nil
}

// Subject строит тему письма: "{prefix}: {заголовок главной новости}".
// Заголовок обрезается до 50 символов; без главной новости используется "Daily Digest".
func (r *Renderer) Subject(d *domain.Digest) string {
	title := DefaultSubjectFallback
	if top, ok := r.topStory(d); ok {
		title = clip(top.Title, subjectTitleRunes)
	}
	return r.opts.SubjectPrefix + ": " + title
}

// topStory берет первую новость первой непустой предпочтительной категории.
func (r *Renderer) topStory(d *domain.Digest) (domain.NewsItem, bool) {
	for _, category := range r.opts.TopStoryCategories {
		if items := d.Categories[category]; len(items) > 0 {
			return items[0], true
		}
	}
	return domain.NewsItem{}, false
}

// sections выводит сначала известные разделы в заданном порядке, затем
// остальные категории дайджеста под их ключом. Пустые категории пропускаются.
func (r *Renderer) sections(d *domain.Digest) []sectionView {
	var out []sectionView
	known := make(map[string]bool, len(r.opts.Sections))
	add := func(title, color string, items domain.CategoryResult) {
		if len(items) == 0 {
			return
		}
		if len(items) > r.opts.ItemsPerSection {
			items = items[:r.opts.ItemsPerSection]
		}
		out = append(out, sectionView{Title: title, Color: color, Items: items})
	}
	for _, s := range r.opts.Sections {
		known[s.Key] = true
		add(s.Title, s.Color, d.Categories[s.Key])
	}
	for _, key := range d.Order {
		if !known[key] {
			add(key, DefaultSectionColor, d.Categories[key])
		}
	}
	return out
}

func clip(s string, limit int) string {
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}
