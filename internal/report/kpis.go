package report

import (
	"sort"
	"time"

	"github.com/AngelCh415/finsnap/internal/models"
)

type AdKPIs struct {
	Spend       float64 `json:"spend"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	Conversions float64 `json:"conversions"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
	CPA         float64 `json:"cpa"`
}

// BuildAdKPIs totals the ad table; spend comes from the snapshot so both
// views agree.
func BuildAdKPIs(t *models.Table, spend float64) AdKPIs {
	k := AdKPIs{Spend: spend}
	if t.Empty() {
		return k
	}
	for _, r := range t.Rows {
		k.Impressions += r.Impressions
		k.Clicks += r.Clicks
		k.Conversions += r.Conversions
	}
	k.CTR = safeDiv(k.Clicks, k.Impressions) * 100
	k.CPC = safeDiv(spend, k.Clicks)
	k.CPA = safeDiv(spend, k.Conversions)
	return k
}

type ExpenseKPIs struct {
	Total   float64 `json:"total"`
	Entries int     `json:"entries"`
	Average float64 `json:"average"`
}

func BuildExpenseKPIs(t *models.Table) ExpenseKPIs {
	var k ExpenseKPIs
	if t.Empty() {
		return k
	}
	k.Entries = t.Len()
	for _, r := range t.Rows {
		k.Total += r.Amount
	}
	k.Average = safeDiv(k.Total, float64(k.Entries))
	return k
}

// MRRMovement is an illustrative bridge from a starting MRR to the current
// one; the proportions are fixed, not measured.
type MRRMovement struct {
	Start float64 `json:"start"`
	New   float64 `json:"new"`
	Churn float64 `json:"churn"`
	End   float64 `json:"end"`
}

func BuildMRRMovement(mrr float64) MRRMovement {
	m := MRRMovement{Start: mrr * 0.9, New: mrr * 0.2, Churn: -mrr * 0.1}
	m.End = m.Start + m.New + m.Churn
	return m
}

type StatementLine struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Measure string  `json:"measure"` // absolute, relative or total
}

// IncomeStatement lays the snapshot out as a cascading result statement.
func IncomeStatement(s models.Snapshot) []StatementLine {
	return []StatementLine{
		{Label: "gross_revenue", Value: s.Revenue, Measure: "absolute"},
		{Label: "cost_of_sales", Value: -(s.Revenue - s.NetRevenue), Measure: "relative"},
		{Label: "net_revenue", Value: s.NetRevenue, Measure: "total"},
		{Label: "operating_expenses", Value: -s.TotalSpend, Measure: "relative"},
		{Label: "net_profit", Value: s.NetProfit, Measure: "total"},
	}
}

// Campaign is one ad campaign's performance. Revenue is estimated by
// splitting each day's sales gross across campaigns by their share of
// that day's spend.
type Campaign struct {
	Name        string  `json:"name"`
	Spend       float64 `json:"spend"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"estimated_revenue"`
	ROAS        float64 `json:"roas"`
	CPA         float64 `json:"cpa"`
}

// Campaigns ranks campaigns by ROAS. It needs campaign, spend and
// conversion columns plus windowed sales.
func Campaigns(ads, sales *models.Table) []Campaign {
	if !ads.Has(models.FieldCampaign) || !ads.Has(models.FieldSpend) ||
		!ads.Has(models.FieldConversions) || sales.Empty() {
		return nil
	}
	salesByDay := map[time.Time]float64{}
	for _, r := range sales.Rows {
		salesByDay[bucket(r.Date, Daily)] += r.Gross
	}
	spendByDay := map[time.Time]float64{}
	for _, r := range ads.Rows {
		spendByDay[bucket(r.Date, Daily)] += r.Spend
	}
	acc := map[string]*Campaign{}
	for _, r := range ads.Rows {
		c, ok := acc[r.Campaign]
		if !ok {
			c = &Campaign{Name: r.Campaign}
			acc[r.Campaign] = c
		}
		d := bucket(r.Date, Daily)
		c.Spend += r.Spend
		c.Conversions += r.Conversions
		c.Revenue += r.Spend / orOne(spendByDay[d]) * salesByDay[d]
	}
	out := make([]Campaign, 0, len(acc))
	for _, c := range acc {
		c.ROAS = c.Revenue / orOne(c.Spend)
		c.CPA = c.Spend / orOne(c.Conversions)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ROAS != out[j].ROAS {
			return out[i].ROAS > out[j].ROAS
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func orOne(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
