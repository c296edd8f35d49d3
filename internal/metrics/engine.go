package metrics

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AngelCh415/finsnap/internal/models"
)

const (
	churnWithStatus = 5.0
	churnEstimated  = 3.0
)

var activeStatuses = map[string]bool{"active": true, "trialing": true}

var annualMarkers = []string{"anual", "annual", "yearly", "year"}

// Compute derives the metric snapshot from the windowed tables. Recurring
// revenue metrics read the unwindowed subscription table in full, since
// subscription state must not be truncated by the report window.
func Compute(windowed, full models.Dataset) models.Snapshot {
	var s models.Snapshot

	// per-source sums
	if sales := windowed[models.SourceSales]; !sales.Empty() {
		paid, refunded := splitSales(sales)
		s.SalesCount = len(paid)
		if sales.Has(models.FieldGross) {
			s.SalesRevenue = sum(paid, gross)
			s.SalesRefunds = sum(refunded, gross)
		}
		if sales.Has(models.FieldNet) {
			s.SalesNetRevenue = sum(paid, net)
		}
	}
	if subs := windowed[models.SourceSubscriptions]; !subs.Empty() {
		s.SubscriptionCount = subs.Len()
		if subs.Has(models.FieldGross) {
			s.SubscriptionGross = sum(subs.Rows, gross)
		}
		if subs.Has(models.FieldNet) {
			s.SubscriptionNet = sum(subs.Rows, net)
		}
		if subs.Has(models.FieldRefunded) {
			s.SubscriptionRefunds = sum(subs.Rows, func(r models.Record) float64 { return r.Refunded })
		}
	}
	if ads := windowed[models.SourceAds]; ads.Has(models.FieldSpend) {
		s.AdSpend = sum(ads.Rows, func(r models.Record) float64 { return r.Spend })
	}
	if exp := windowed[models.SourceExpenses]; exp.Has(models.FieldAmount) {
		s.Expenses = sum(exp.Rows, func(r models.Record) float64 { return r.Amount })
	}

	// aggregates
	s.Revenue = s.SalesRevenue + s.SubscriptionGross
	s.NetRevenue = s.SalesNetRevenue + s.SubscriptionNet
	s.TotalSpend = s.AdSpend + s.Expenses
	s.NetProfit = s.NetRevenue - s.TotalSpend
	s.Margin = safeDiv(s.NetProfit, s.Revenue) * 100

	transactions := s.SalesCount + s.SubscriptionCount
	s.AvgTicket = safeDiv(s.Revenue, float64(transactions))
	s.CAC = safeDiv(s.AdSpend, float64(transactions))

	recurring(&s, full[models.SourceSubscriptions], windowed[models.SourceSubscriptions])

	switch {
	case s.ARPA > 0 && s.ChurnRate > 0:
		s.LTV = s.ARPA / (s.ChurnRate / 100)
	case transactions > 0:
		s.LTV = s.NetRevenue / float64(transactions)
	}
	s.LTVCAC = safeDiv(s.LTV, s.CAC)
	s.RefundRate = safeDiv(s.SalesRefunds+s.SubscriptionRefunds, s.Revenue) * 100
	return s
}

// recurring fills MRR, ARR, ARPA and churn. With subscription status data
// it sums active subscriptions; without it, it projects the windowed
// average transaction value, a known approximation.
func recurring(s *models.Snapshot, full, windowed *models.Table) {
	if full.Empty() {
		return
	}
	if full.Has(models.FieldSubscriptionStatus) {
		var active []models.Record
		for _, r := range full.Rows {
			if activeStatuses[strings.ToLower(strings.TrimSpace(r.SubscriptionStatus))] {
				active = append(active, r)
			}
		}
		if len(active) == 0 {
			return
		}
		s.MRR = sum(active, MonthlyValue)
		s.ARR = s.MRR * 12
		s.ARPA = s.MRR / float64(len(active))
		s.ChurnRate = churnWithStatus
		return
	}
	if windowed.Empty() || !windowed.Has(models.FieldGross) {
		return
	}
	n := float64(windowed.Len())
	avg := sum(windowed.Rows, gross) / n
	s.MRR = avg * n
	s.ARR = s.MRR * 12
	s.ARPA = avg
	s.ChurnRate = churnEstimated
	s.RecurringEstimated = true
}

// MonthlyValue is a subscription row's contribution to MRR: annual plans
// count a twelfth of their gross amount.
func MonthlyValue(r models.Record) float64 {
	if IsAnnualPlan(r.Plan) {
		return r.Gross / 12
	}
	return r.Gross
}

func IsAnnualPlan(plan string) bool {
	p := strings.ToLower(plan)
	for _, m := range annualMarkers {
		if strings.Contains(p, m) {
			return true
		}
	}
	return false
}

// splitSales separates completed ("paid") from refunded sales. Without a
// status column every row counts as completed.
func splitSales(t *models.Table) (paid, refunded []models.Record) {
	if !t.Has(models.FieldStatus) {
		return t.Rows, nil
	}
	for _, r := range t.Rows {
		switch SalesStatus(r) {
		case "paid":
			paid = append(paid, r)
		case "refunded":
			refunded = append(refunded, r)
		}
	}
	return paid, refunded
}

func SalesStatus(r models.Record) string { return strings.ToLower(strings.TrimSpace(r.Status)) }

func gross(r models.Record) float64 { return r.Gross }
func net(r models.Record) float64   { return r.Net }

// sum adds money values in decimal to keep cents exact across many rows.
func sum(rows []models.Record, f func(models.Record) float64) float64 {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(decimal.NewFromFloat(f(r)))
	}
	v, _ := total.Float64()
	return v
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
