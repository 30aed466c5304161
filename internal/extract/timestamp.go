package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/JakeFAU/news-article-crawler/internal/crawler"
)

// timestampLayouts are the ISO-8601 shapes seen in <time datetime> values.
// time.Parse accepts fractional seconds after a seconds field even when the
// layout omits them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp parses raw as one of the accepted ISO-8601 layouts. The
// wall-clock fields of the result are those written in raw; no zone
// conversion is applied.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// decomposeTimestamp builds CreatedAt from the raw datetime attribute. The
// raw string is always kept; the derived fields are set together or not at
// all.
func decomposeTimestamp(raw string) crawler.CreatedAt {
	created := crawler.CreatedAt{ISODatetime: raw}
	t, ok := parseTimestamp(raw)
	if !ok {
		return created
	}
	year, month, day := t.Year(), int(t.Month()), t.Day()
	created.Year = &year
	created.Month = &month
	created.Day = &day
	created.Time = clockString(t)
	return created
}

// clockString renders the time of day as HH:MM:SS, adding microseconds only
// when they are non-zero.
func clockString(t time.Time) string {
	s := t.Format("15:04:05")
	if micro := t.Nanosecond() / int(time.Microsecond); micro != 0 {
		s += fmt.Sprintf(".%06d", micro)
	}
	return s
}
