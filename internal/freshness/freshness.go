// Package freshness разбирает разнородные даты публикации и решает,
// попадает ли запись в скользящее окно свежести.
package freshness

import (
	"fmt"
	"strings"
	"time"
)

// rfc2822Layouts - варианты дат из RSS (RFC 2822 / RFC 822).
var rfc2822Layouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"Mon, 02 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
}

// obsoleteZones - зоны RFC 2822 (obs-zone). time.Parse не знает их смещения
// и считает такое время UTC, поэтому смещение применяется явно.
var obsoleteZones = map[string]int{
	"UT":  0,
	"GMT": 0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// isoLayouts - варианты ISO 8601. Без зоны время считается UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp приводит строку даты к моменту времени в UTC.
// Сначала пробуются форматы RFC 2822, затем ISO 8601.
// Возвращает false, если строка пустая или ни один формат не подошел.
func ParseTimestamp(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	// "UT" короче, чем допускает разбор аббревиатур зон.
	if rest, ok := strings.CutSuffix(value, " UT"); ok {
		value = rest + " GMT"
	}
	for _, layout := range rfc2822Layouts {
		if t, err := time.Parse(layout, value); err == nil {
			if strings.HasSuffix(layout, "MST") {
				t = applyObsoleteZone(t)
			}
			return t.UTC(), true
		}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// applyObsoleteZone переносит показания часов в зону с известным смещением.
func applyObsoleteZone(t time.Time) time.Time {
	name, _ := t.Zone()
	offset, ok := obsoleteZones[strings.ToUpper(name)]
	if !ok {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		time.FixedZone(name, offset))
}

// Checker проверяет свежесть относительно окна и часов, заданных при создании.
type Checker struct {
	window time.Duration
	now    func() time.Time
}

// NewChecker создает Checker с окном в часах. Если now равен nil, используется time.Now.
func NewChecker(windowHours int, now func() time.Time) *Checker {
	if now == nil {
		now = time.Now
	}
	return &Checker{
		window: time.Duration(windowHours) * time.Hour,
		now:    now,
	}
}

// Now возвращает текущее время по часам проверяющего.
func (c *Checker) Now() time.Time { return c.now() }

// IsFresh сообщает, попадает ли дата в окно свежести.
// Запись без разбираемой даты считается устаревшей.
func (c *Checker) IsFresh(raw string) bool {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return false
	}
	return !t.Before(c.now().Add(-c.window))
}

// AgeLabel возвращает возраст записи вида "5m ago", "3h ago" или "2d ago".
// Пустая строка, если дату разобрать не удалось.
func (c *Checker) AgeLabel(raw string) string {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return ""
	}
	return Age(t, c.now())
}

// Age форматирует прошедшее время между t и now.
func Age(t, now time.Time) string {
	elapsed := now.Sub(t)
	if elapsed < 0 {
		elapsed = 0
	}
	switch {
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed/time.Minute))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(elapsed/(24*time.Hour)))
	}
}
