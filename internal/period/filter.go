package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/AngelCh415/finsnap/internal/models"
)

type Mode string

const (
	ModeAll      Mode = "all"
	ModeTrailing Mode = "trailing"
	ModeCustom   Mode = "custom"
)

// TrailingDays are the supported trailing window lengths.
var TrailingDays = []int{7, 15, 30, 90, 180}

// Window selects the rows of a report pass. Custom windows include Start
// and the whole of End's day.
type Window struct {
	Mode  Mode      `json:"mode"`
	Days  int       `json:"days,omitempty"`
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

func All() Window { return Window{Mode: ModeAll} }

func Trailing(days int) Window { return Window{Mode: ModeTrailing, Days: days} }

func Custom(start, end time.Time) Window {
	return Window{Mode: ModeCustom, Start: day(start), End: day(end)}
}

// Label is the caller-facing name of the window, e.g. "30d".
func (w Window) Label() string {
	switch w.Mode {
	case ModeTrailing:
		return fmt.Sprintf("%dd", w.Days)
	case ModeCustom:
		return "custom"
	}
	return "all"
}

// Parse reads the query form of a window: "7d".."180d", "all" or
// "custom" with YYYY-MM-DD bounds. Custom bounds default to the business
// start date and today.
func Parse(mode, start, end string, now time.Time) (Window, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "", "all":
		return All(), nil
	case "custom":
		s, e := models.BusinessStart, day(now)
		var err error
		if start != "" {
			if s, err = time.Parse("2006-01-02", start); err != nil {
				return Window{}, fmt.Errorf("bad start date %q", start)
			}
		}
		if end != "" {
			if e, err = time.Parse("2006-01-02", end); err != nil {
				return Window{}, fmt.Errorf("bad end date %q", end)
			}
		}
		if e.Before(s) {
			return Window{}, fmt.Errorf("end %s before start %s", e.Format("2006-01-02"), s.Format("2006-01-02"))
		}
		return Custom(s, e), nil
	}
	for _, d := range TrailingDays {
		if mode == fmt.Sprintf("%dd", d) {
			return Trailing(d), nil
		}
	}
	return Window{}, fmt.Errorf("unknown period %q", mode)
}

// Filter restricts t to the window. Trailing windows are measured back
// from the latest date in t, not from the wall clock. Rows without a date
// are always dropped. An unusable window leaves t untouched.
func Filter(t *models.Table, w Window) *models.Table {
	if t == nil || w.Mode == ModeAll || w.Mode == "" {
		return t
	}
	var keep func(time.Time) bool
	switch w.Mode {
	case ModeTrailing:
		if w.Days <= 0 {
			return t
		}
		latest, ok := t.MaxDate()
		if !ok {
			return t.WithRows(nil)
		}
		from := latest.AddDate(0, 0, -w.Days)
		keep = func(d time.Time) bool { return !d.Before(from) }
	case ModeCustom:
		if w.Start.IsZero() || w.End.IsZero() || w.End.Before(w.Start) {
			return t
		}
		from, until := day(w.Start), day(w.End).AddDate(0, 0, 1)
		keep = func(d time.Time) bool { return !d.Before(from) && d.Before(until) }
	default:
		return t
	}
	rows := make([]models.Record, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Date.IsZero() || !keep(r.Date) {
			continue
		}
		rows = append(rows, r)
	}
	return t.WithRows(rows)
}

// FilterAll applies Filter to every table of a dataset.
func FilterAll(ds models.Dataset, w Window) models.Dataset {
	out := make(models.Dataset, len(ds))
	for id, t := range ds {
		out[id] = Filter(t, w)
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
