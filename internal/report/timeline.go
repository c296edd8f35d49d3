package report

import (
	"time"

	"github.com/AngelCh415/finsnap/internal/models"
	"github.com/AngelCh415/finsnap/internal/period"
)

// TimelinePoint is one bucket of the revenue vs spend vs profit series.
type TimelinePoint struct {
	Date       time.Time `json:"date"`
	NetRevenue float64   `json:"net_revenue"`
	Spend      float64   `json:"spend"`
	Profit     float64   `json:"profit"`
}

type Timeline struct {
	Granularity Granularity     `json:"granularity"`
	Points      []TimelinePoint `json:"points"`
}

// BuildTimeline merges net revenue (sales and subscriptions) with spend
// (ads and expenses) into one gap-free series.
func BuildTimeline(ds models.Dataset, w period.Window) Timeline {
	type flow struct{ in, out float64 }
	type entry struct {
		date time.Time
		flow
	}
	var entries []entry
	for _, id := range []models.SourceID{models.SourceSales, models.SourceSubscriptions} {
		if t := ds[id]; t.Has(models.FieldNet) {
			for _, r := range t.Rows {
				entries = append(entries, entry{r.Date, flow{in: r.Net}})
			}
		}
	}
	if t := ds[models.SourceAds]; t.Has(models.FieldSpend) {
		for _, r := range t.Rows {
			entries = append(entries, entry{r.Date, flow{out: r.Spend}})
		}
	}
	if t := ds[models.SourceExpenses]; t.Has(models.FieldAmount) {
		for _, r := range t.Rows {
			entries = append(entries, entry{r.Date, flow{out: r.Amount}})
		}
	}
	if len(entries) == 0 {
		return Timeline{Granularity: ChooseGranularity(w, 0)}
	}

	first, last := entries[0].date, entries[0].date
	for _, e := range entries {
		if e.date.Before(first) {
			first = e.date
		}
		if e.date.After(last) {
			last = e.date
		}
	}
	g := ChooseGranularity(w, last.Sub(first))
	acc := map[time.Time]flow{}
	for _, e := range entries {
		b := bucket(e.date, g)
		f := acc[b]
		f.in += e.in
		f.out += e.out
		acc[b] = f
	}
	tl := Timeline{Granularity: g}
	for b := bucket(first, g); !b.After(bucket(last, g)); b = next(b, g) {
		f := acc[b]
		tl.Points = append(tl.Points, TimelinePoint{Date: b, NetRevenue: f.in, Spend: f.out, Profit: f.in - f.out})
	}
	return tl
}
