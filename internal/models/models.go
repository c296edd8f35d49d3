package models

import "time"

type SourceID string

const (
	SourceSales         SourceID = "sales"
	SourceSubscriptions SourceID = "subscriptions"
	SourceAds           SourceID = "ads"
	SourceExpenses      SourceID = "expenses"
)

// Sources lists every source in load order.
var Sources = []SourceID{SourceSales, SourceSubscriptions, SourceAds, SourceExpenses}

// BusinessStart is the first day of operation; earlier rows are discarded.
var BusinessStart = time.Date(2022, 11, 16, 0, 0, 0, 0, time.UTC)

type Field string

const (
	FieldDate               Field = "date"
	FieldGross              Field = "gross_amount"
	FieldFee                Field = "platform_fee"
	FieldCommission         Field = "affiliate_commission"
	FieldStatus             Field = "status"
	FieldProduct            Field = "product_name"
	FieldNet                Field = "net_amount"
	FieldRefunded           Field = "refunded_amount"
	FieldSubscriptionStatus Field = "subscription_status"
	FieldPlan               Field = "plan_name"
	FieldSpend              Field = "spend"
	FieldImpressions        Field = "impressions"
	FieldClicks             Field = "clicks"
	FieldConversions        Field = "conversions"
	FieldCampaign           Field = "campaign_name"
	FieldAmount             Field = "amount"
)

// FieldSet records which canonical fields a table carries.
type FieldSet map[Field]struct{}

func NewFieldSet(fs ...Field) FieldSet {
	out := make(FieldSet, len(fs))
	for _, f := range fs {
		out[f] = struct{}{}
	}
	return out
}

func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

func (s FieldSet) Add(f Field) { s[f] = struct{}{} }

// Record is one normalized row. Only the fields present in the owning
// table's FieldSet are meaningful; the rest stay zero.
type Record struct {
	Date time.Time

	Gross      float64
	Fee        float64
	Commission float64
	Refunded   float64
	Net        float64
	Amount     float64

	Spend       float64
	Impressions float64
	Clicks      float64
	Conversions float64

	Status             string
	SubscriptionStatus string
	Product            string
	Plan               string
	Campaign           string
}

// Table is a normalized record table. Tables are read-only once built;
// transformations return new tables.
type Table struct {
	Source SourceID
	Fields FieldSet
	Rows   []Record
}

func (t *Table) Has(f Field) bool { return t != nil && t.Fields.Has(f) }

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Empty() bool { return t.Len() == 0 }

// WithRows returns a table sharing t's schema with the given rows.
func (t *Table) WithRows(rows []Record) *Table {
	return &Table{Source: t.Source, Fields: t.Fields, Rows: rows}
}

// MaxDate returns the latest row date; ok is false for an empty table.
func (t *Table) MaxDate() (time.Time, bool) {
	var latest time.Time
	if t.Empty() {
		return latest, false
	}
	for _, r := range t.Rows {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest, !latest.IsZero()
}

// Dataset holds one table per source; a missing key means the source is absent.
type Dataset map[SourceID]*Table

// Snapshot is the full metric set for one (window, tables) pair.
type Snapshot struct {
	SalesCount          int     `json:"sales_count"`
	SalesRevenue        float64 `json:"sales_revenue"`
	SalesNetRevenue     float64 `json:"sales_net_revenue"`
	SalesRefunds        float64 `json:"sales_refunds"`
	SubscriptionCount   int     `json:"subscription_transactions"`
	SubscriptionGross   float64 `json:"subscription_revenue"`
	SubscriptionNet     float64 `json:"subscription_net_revenue"`
	SubscriptionRefunds float64 `json:"subscription_refunds"`
	AdSpend             float64 `json:"ad_spend"`
	Expenses            float64 `json:"expenses"`

	Revenue    float64 `json:"revenue"`
	NetRevenue float64 `json:"net_revenue"`
	TotalSpend float64 `json:"total_spend"`
	NetProfit  float64 `json:"net_profit"`
	Margin     float64 `json:"profit_margin"`
	AvgTicket  float64 `json:"average_ticket"`

	CAC        float64 `json:"cac"`
	MRR        float64 `json:"mrr"`
	ARR        float64 `json:"arr"`
	ARPA       float64 `json:"arpa"`
	ChurnRate  float64 `json:"churn_rate"`
	LTV        float64 `json:"ltv"`
	LTVCAC     float64 `json:"ltv_cac_ratio"`
	RefundRate float64 `json:"refund_rate"`

	// RecurringEstimated is set when MRR came from windowed transactions
	// instead of subscription status data.
	RecurringEstimated bool `json:"recurring_estimated"`
}

// Map returns the snapshot keyed by metric name.
func (s Snapshot) Map() map[string]float64 {
	return map[string]float64{
		"sales_count":               float64(s.SalesCount),
		"sales_revenue":             s.SalesRevenue,
		"sales_net_revenue":         s.SalesNetRevenue,
		"sales_refunds":             s.SalesRefunds,
		"subscription_transactions": float64(s.SubscriptionCount),
		"subscription_revenue":      s.SubscriptionGross,
		"subscription_net_revenue":  s.SubscriptionNet,
		"subscription_refunds":      s.SubscriptionRefunds,
		"ad_spend":                  s.AdSpend,
		"expenses":                  s.Expenses,
		"revenue":                   s.Revenue,
		"net_revenue":               s.NetRevenue,
		"total_spend":               s.TotalSpend,
		"net_profit":                s.NetProfit,
		"profit_margin":             s.Margin,
		"average_ticket":            s.AvgTicket,
		"cac":                       s.CAC,
		"mrr":                       s.MRR,
		"arr":                       s.ARR,
		"arpa":                      s.ARPA,
		"churn_rate":                s.ChurnRate,
		"ltv":                       s.LTV,
		"ltv_cac_ratio":             s.LTVCAC,
		"refund_rate":               s.RefundRate,
	}
}
