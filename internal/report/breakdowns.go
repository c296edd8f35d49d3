package report

import (
	"sort"
	"time"

	"github.com/AngelCh415/finsnap/internal/metrics"
	"github.com/AngelCh415/finsnap/internal/models"
	"github.com/AngelCh415/finsnap/internal/period"
)

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

const topProducts = 10

// Breakdowns are the per-chart datasets of a report pass.
type Breakdowns struct {
	Timeline        Timeline        `json:"timeline"`
	Ads             AdKPIs          `json:"ads"`
	Expenses        ExpenseKPIs     `json:"expenses"`
	SalesStatus     []Count         `json:"sales_status"`
	TopProducts     []Amount        `json:"top_products"`
	MonthlyPaid     []Point         `json:"monthly_paid_revenue"`
	SubscriptionDay []DayActivity   `json:"subscription_daily"`
	MRRByPlan       []Amount        `json:"mrr_by_plan"`
	MRRMovement     MRRMovement     `json:"mrr_movement"`
	Campaigns       []Campaign      `json:"campaigns"`
	Income          []StatementLine `json:"income_statement"`
	ExpenseDaily    []Point         `json:"expense_daily"`
}

type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Amount struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type DayActivity struct {
	Date         time.Time `json:"date"`
	Revenue      float64   `json:"revenue"`
	Transactions int       `json:"transactions"`
}

// Build derives every breakdown from a report.
func Build(rep metrics.Report) Breakdowns {
	t := rep.Tables
	return Breakdowns{
		Timeline:        BuildTimeline(t, rep.Window),
		Ads:             BuildAdKPIs(t[models.SourceAds], rep.Snapshot.AdSpend),
		Expenses:        BuildExpenseKPIs(t[models.SourceExpenses]),
		SalesStatus:     SalesStatusCounts(t[models.SourceSales]),
		TopProducts:     TopProducts(t[models.SourceSales], topProducts),
		MonthlyPaid:     MonthlyPaidRevenue(t[models.SourceSales]),
		SubscriptionDay: SubscriptionDaily(t[models.SourceSubscriptions]),
		MRRByPlan:       MRRByPlan(t[models.SourceSubscriptions]),
		MRRMovement:     BuildMRRMovement(rep.Snapshot.MRR),
		Campaigns:       Campaigns(t[models.SourceAds], t[models.SourceSales]),
		Income:          IncomeStatement(rep.Snapshot),
		ExpenseDaily:    ExpenseDaily(t[models.SourceExpenses]),
	}
}

// ChooseGranularity buckets short windows by day, medium ones by week and
// everything else by month. Custom windows are judged by the span of the
// data they contain.
func ChooseGranularity(w period.Window, span time.Duration) Granularity {
	days := int(span.Hours() / 24)
	switch w.Mode {
	case period.ModeTrailing:
		if w.Days <= 30 {
			return Daily
		}
		if w.Days <= 180 {
			return Weekly
		}
	case period.ModeCustom:
		if days <= 45 {
			return Daily
		}
		if days <= 180 {
			return Weekly
		}
	}
	return Monthly
}

// bucket maps d to its day, its month's first day, or for weekly series
// the Monday that closes its week: weeks run Tuesday through Monday and
// carry the Monday's date.
func bucket(d time.Time, g Granularity) time.Time {
	y, m, dd := d.Date()
	day := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
	switch g {
	case Weekly:
		ahead := (int(time.Monday) - int(day.Weekday()) + 7) % 7
		return day.AddDate(0, 0, ahead)
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	}
	return day
}

func next(b time.Time, g Granularity) time.Time {
	switch g {
	case Weekly:
		return b.AddDate(0, 0, 7)
	case Monthly:
		return b.AddDate(0, 1, 0)
	}
	return b.AddDate(0, 0, 1)
}

// series sums f per bucket and returns the buckets in date order.
func series(rows []models.Record, g Granularity, f func(models.Record) float64) []Point {
	acc := map[time.Time]float64{}
	for _, r := range rows {
		acc[bucket(r.Date, g)] += f(r)
	}
	return sorted(acc)
}

func sorted(acc map[time.Time]float64) []Point {
	out := make([]Point, 0, len(acc))
	for d, v := range acc {
		out = append(out, Point{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func paidSales(t *models.Table) []models.Record {
	if t.Empty() {
		return nil
	}
	if !t.Has(models.FieldStatus) {
		return t.Rows
	}
	var out []models.Record
	for _, r := range t.Rows {
		if metrics.SalesStatus(r) == "paid" {
			out = append(out, r)
		}
	}
	return out
}

// SalesStatusCounts counts sales rows per status, most frequent first.
func SalesStatusCounts(t *models.Table) []Count {
	if !t.Has(models.FieldStatus) {
		return nil
	}
	acc := map[string]int{}
	for _, r := range t.Rows {
		acc[metrics.SalesStatus(r)]++
	}
	out := make([]Count, 0, len(acc))
	for k, v := range acc {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopProducts ranks products by paid gross revenue.
func TopProducts(t *models.Table, n int) []Amount {
	if !t.Has(models.FieldProduct) || !t.Has(models.FieldGross) {
		return nil
	}
	acc := map[string]float64{}
	for _, r := range paidSales(t) {
		acc[r.Product] += r.Gross
	}
	out := ranked(acc)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func ranked(acc map[string]float64) []Amount {
	out := make([]Amount, 0, len(acc))
	for k, v := range acc {
		out = append(out, Amount{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthlyPaidRevenue sums paid gross revenue per calendar month.
func MonthlyPaidRevenue(t *models.Table) []Point {
	if !t.Has(models.FieldGross) {
		return nil
	}
	return series(paidSales(t), Monthly, func(r models.Record) float64 { return r.Gross })
}

// SubscriptionDaily reports gross revenue and transaction count per day,
// including days without activity.
func SubscriptionDaily(t *models.Table) []DayActivity {
	if t.Empty() {
		return nil
	}
	rev := map[time.Time]float64{}
	cnt := map[time.Time]int{}
	var first, last time.Time
	for _, r := range t.Rows {
		d := bucket(r.Date, Daily)
		rev[d] += r.Gross
		cnt[d]++
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	var out []DayActivity
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, DayActivity{Date: d, Revenue: rev[d], Transactions: cnt[d]})
	}
	return out
}

// MRRByPlan sums the monthly value of windowed subscription rows per plan.
func MRRByPlan(t *models.Table) []Amount {
	if !t.Has(models.FieldPlan) {
		return nil
	}
	acc := map[string]float64{}
	for _, r := range t.Rows {
		acc[r.Plan] += metrics.MonthlyValue(r)
	}
	return ranked(acc)
}

// ExpenseDaily sums ledger expenses per day.
func ExpenseDaily(t *models.Table) []Point {
	if !t.Has(models.FieldAmount) {
		return nil
	}
	return series(t.Rows, Daily, func(r models.Record) float64 { return r.Amount })
}
