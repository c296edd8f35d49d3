package schema

import (
	"strings"

	"github.com/AngelCh415/finsnap/internal/models"
)

// FieldSpec lists raw column names accepted for a canonical field, in
// priority order.
type FieldSpec struct {
	Field      models.Field
	Candidates []string
}

var specs = map[models.SourceID][]FieldSpec{
	models.SourceSales: {
		{models.FieldDate, []string{"order_date", "approval_date", "created_at", "date", "Date"}},
		{models.FieldGross, []string{"gross_amount"}},
		{models.FieldFee, []string{"kiwify_fee", "platform_fee", "fee"}},
		{models.FieldCommission, []string{"affiliate_commission"}},
		{models.FieldStatus, []string{"status"}},
		{models.FieldProduct, []string{"product_name"}},
	},
	models.SourceSubscriptions: {
		{models.FieldDate, []string{"created", "Created", "Data", "data", "date", "Date", "created_at"}},
		{models.FieldGross, []string{"amount_paid"}},
		{models.FieldFee, []string{"stripe_fee", "platform_fee", "fee"}},
		{models.FieldRefunded, []string{"refunded_amount"}},
		{models.FieldSubscriptionStatus, []string{"subscription_status", "status"}},
		{models.FieldPlan, []string{"plan_name", "price_nickname", "plan"}},
	},
	models.SourceAds: {
		{models.FieldDate, []string{"Data", "data", "Day", "Date", "date", "Reporting Starts", "Reporting Ends"}},
		{models.FieldSpend, []string{"Amount Spent (BRL)", "Valor Gasto (BRL)", "Gasto", "Valor", "valor"}},
		{models.FieldImpressions, []string{"Impressions", "impressions", "Impressões", "impressões"}},
		{models.FieldClicks, []string{"Clicks", "clicks", "Cliques", "cliques"}},
		{models.FieldConversions, []string{"Conversions", "conversions", "Conversões", "conversões", "Purchases", "purchases", "Compras", "compras"}},
		{models.FieldCampaign, []string{"Campaign Name", "campaign_name", "Nome da Campanha", "nome_campanha", "Campanha", "campanha"}},
	},
	models.SourceExpenses: {
		{models.FieldDate, []string{"Data", "data", "Date", "date", "created_at"}},
		{models.FieldAmount, []string{"Valor", "valor", "Custo", "custo", "Despesa", "despesa"}},
	},
}

// Mapping maps canonical fields to raw column indexes.
type Mapping map[models.Field]int

// Fields returns the canonical fields the mapping resolved.
func (m Mapping) Fields() models.FieldSet {
	out := models.NewFieldSet()
	for f := range m {
		out.Add(f)
	}
	return out
}

// Cell returns the raw value of field f in row, or "" when the field is
// unmapped or the row is short.
func (m Mapping) Cell(row []string, f models.Field) string {
	i, ok := m[f]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Map resolves a header row. For each field the first candidate present
// wins; a column claimed by one field is not offered to later fields.
// Fields without a match are left out.
func Map(id models.SourceID, header []string) Mapping {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	claimed := map[int]struct{}{}
	out := Mapping{}
	for _, fs := range specs[id] {
		for _, c := range fs.Candidates {
			i, ok := index[c]
			if !ok {
				continue
			}
			if _, taken := claimed[i]; taken {
				continue
			}
			out[fs.Field] = i
			claimed[i] = struct{}{}
			break
		}
	}
	return out
}
