package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateStrategy is one step of a date fallback chain. Parse reports false
// when the input does not match; it never panics.
type DateStrategy struct {
	Name  string
	Parse func(s string) (time.Time, bool)
}

// DateParser resolves date strings by trying its strategies in order.
type DateParser struct {
	strategies []DateStrategy
}

// unambiguous layouts that need no day/month convention
var directLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
	time.RFC1123,
	time.RFC1123Z,
}

// explicit layouts tried for platform exports, day-first before month-first
var explicitLayouts = []string{
	"2/1/2006",
	"2006-01-02",
	"2-1-2006",
	"1/2/2006",
	"2/1/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2/1/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

var dayFirstLayouts = []string{
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	// only reached when the day-first reading is impossible, e.g. 12/25/2024
	"1/2/2006 15:04:05",
	"1/2/2006",
	"1-2-2006",
}

var embeddedDate = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2}`)

var epochPattern = regexp.MustCompile(`^\d{1,11}(\.\d+)?$`)

// NewDateParser builds the fallback chain for a source. Sources that emit
// Unix timestamps get the epoch step and the explicit mixed-order layouts;
// the rest read ambiguous numeric dates day-first.
func NewDateParser(epochSource bool) *DateParser {
	s := []DateStrategy{{Name: "direct", Parse: layoutsStrategy(directLayouts)}}
	if epochSource {
		s = append(s,
			DateStrategy{Name: "epoch", Parse: parseEpoch},
			DateStrategy{Name: "explicit", Parse: layoutsStrategy(explicitLayouts)},
		)
	} else {
		s = append(s, DateStrategy{Name: "day_first", Parse: layoutsStrategy(dayFirstLayouts)})
	}
	s = append(s, DateStrategy{Name: "embedded", Parse: parseEmbedded})
	return &DateParser{strategies: s}
}

// Parse returns the resolved date and the name of the strategy that
// matched. ok is false when every strategy is exhausted.
func (p *DateParser) Parse(s string) (t time.Time, strategy string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, "", false
	}
	for _, st := range p.strategies {
		if t, ok := st.Parse(s); ok {
			return t, st.Name, true
		}
	}
	return time.Time{}, "", false
}

// Strategies returns the chain's strategy names in order.
func (p *DateParser) Strategies() []string {
	out := make([]string, len(p.strategies))
	for i, st := range p.strategies {
		out[i] = st.Name
	}
	return out
}

func layoutsStrategy(layouts []string) func(string) (time.Time, bool) {
	return func(s string) (time.Time, bool) {
		for _, l := range layouts {
			if t, err := time.Parse(l, s); err == nil {
				return wallClock(t), true
			}
		}
		return time.Time{}, false
	}
}

func parseEpoch(s string) (time.Time, bool) {
	if !epochPattern.MatchString(s) {
		return time.Time{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC(), true
}

func parseEmbedded(s string) (time.Time, bool) {
	m := embeddedDate.FindString(s)
	if m == "" {
		return time.Time{}, false
	}
	m = strings.ReplaceAll(m, "-", "/")
	return layoutsStrategy([]string{"2/1/2006", "2/1/06", "2006/1/2", "1/2/2006"})(m)
}

// wallClock keeps the written calendar date and time, dropping any offset.
func wallClock(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.UTC)
}
