package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/AngelCh415/finsnap/internal/config"
	"github.com/AngelCh415/finsnap/internal/models"
	"github.com/AngelCh415/finsnap/internal/normalize"
	"github.com/AngelCh415/finsnap/internal/schema"
	"github.com/AngelCh415/finsnap/internal/store"
	"github.com/AngelCh415/finsnap/internal/telemetry"
)

const StatusOK = "ok"

// Loader fetches and normalizes sources, memoizing results in the store
// until the next Refresh.
type Loader struct {
	f       Fetcher
	st      *store.MemoryStore
	log     *slog.Logger
	tm      *telemetry.Metrics
	sources map[models.SourceID]config.Source

	// one load at a time; a report pass is sequential
	mu sync.Mutex
}

func NewLoader(f Fetcher, st *store.MemoryStore, log *slog.Logger, tm *telemetry.Metrics, sources []config.Source) *Loader {
	m := make(map[models.SourceID]config.Source, len(sources))
	for _, s := range sources {
		m[s.ID] = s
	}
	return &Loader{f: f, st: st, log: log, tm: tm, sources: m}
}

// Load returns the normalized table for a source. It never fails: a
// missing or broken source yields a nil table and a diagnostic status.
func (l *Loader) Load(ctx context.Context, id models.SourceID) (*models.Table, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.st.Get(id); ok {
		l.tm.CacheHits.WithLabelValues(string(id)).Inc()
		return e.Table, e.Status
	}
	start := time.Now()
	e := l.load(ctx, id)
	l.tm.LoadDuration.WithLabelValues(string(id)).Observe(time.Since(start).Seconds())
	l.st.Put(e)

	if e.Table == nil {
		l.log.Warn("source absent", slog.String("source", string(id)), slog.String("status", e.Status))
	} else {
		l.tm.RowsLoaded.WithLabelValues(string(id)).Set(float64(e.Table.Len()))
		l.log.Info("source loaded",
			slog.String("source", string(id)),
			slog.Int("rows", e.Table.Len()),
			slog.Int("dropped", e.Dropped),
			slog.String("hash", e.Hash[:12]))
	}
	return e.Table, e.Status
}

func (l *Loader) load(ctx context.Context, id models.SourceID) store.Entry {
	e := store.Entry{Source: id, Generation: l.st.Generation(), LoadedAt: time.Now().UTC()}
	src, ok := l.sources[id]
	if !ok {
		e.Status = fmt.Sprintf("source %s unknown", id)
		l.tm.Loads.WithLabelValues(string(id), "unknown").Inc()
		return e
	}
	data, err := l.f.Fetch(ctx, src.URL)
	if err != nil {
		e.Status = fmt.Sprintf("fetch %s: %v", src.Name, err)
		l.tm.Loads.WithLabelValues(string(id), "fetch_error").Inc()
		return e
	}
	sum := sha256.Sum256(data)
	e.Hash = hex.EncodeToString(sum[:])

	raw, err := Decode(data, src.Format, src.Sheet)
	if err != nil {
		e.Status = fmt.Sprintf("decode %s: %v", src.Name, err)
		l.tm.Loads.WithLabelValues(string(id), "decode_error").Inc()
		return e
	}
	if len(raw.Rows) == 0 {
		e.Status = fmt.Sprintf("source %s is empty", src.Name)
		l.tm.Loads.WithLabelValues(string(id), "empty").Inc()
		return e
	}
	t, stats, err := Normalize(id, raw, src.Epoch)
	if err != nil {
		e.Status = fmt.Sprintf("normalize %s: %v", src.Name, err)
		l.tm.Loads.WithLabelValues(string(id), "schema_error").Inc()
		return e
	}
	l.tm.RowsDropped.WithLabelValues(string(id), "bad_date").Add(float64(stats.BadDate))
	l.tm.RowsDropped.WithLabelValues(string(id), "before_start").Add(float64(stats.BeforeStart))
	for strategy, n := range stats.ByStrategy {
		l.tm.DateStrategies.WithLabelValues(string(id), strategy).Add(float64(n))
	}
	l.log.Debug("dates resolved",
		slog.String("source", string(id)),
		slog.String("chain", strings.Join(stats.DateChain, ">")),
		slog.Any("by_strategy", stats.ByStrategy))
	l.tm.Loads.WithLabelValues(string(id), "ok").Inc()
	e.Table = t
	e.Dropped = stats.BadDate + stats.BeforeStart
	e.Status = StatusOK
	return e
}

// LoadAll loads every configured source. Absent sources are left out of
// the dataset; their status explains why.
func (l *Loader) LoadAll(ctx context.Context) (models.Dataset, map[models.SourceID]string) {
	ds := models.Dataset{}
	status := make(map[models.SourceID]string, len(models.Sources))
	for _, id := range models.Sources {
		t, s := l.Load(ctx, id)
		status[id] = s
		if t != nil {
			ds[id] = t
		}
	}
	return ds, status
}

// Refresh invalidates every memoized load and returns the new generation.
func (l *Loader) Refresh() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	g := l.st.Invalidate()
	l.tm.Refreshes.Inc()
	l.log.Info("cache invalidated", slog.Uint64("generation", g))
	return g
}

// Entries reports the memoized loads of the current generation.
func (l *Loader) Entries() []store.Entry { return l.st.All() }

// NormalizeStats counts rows removed during normalization and, for kept
// rows, which step of the date chain resolved them.
type NormalizeStats struct {
	BadDate     int
	BeforeStart int
	DateChain   []string
	ByStrategy  map[string]int
}

var monetary = []models.Field{
	models.FieldGross, models.FieldFee, models.FieldCommission,
	models.FieldRefunded, models.FieldSpend, models.FieldAmount,
}

// Normalize maps a raw export onto the source's canonical schema, parses
// values and dates, derives net_amount and drops rows whose date is
// unresolvable or before the business start date.
func Normalize(id models.SourceID, raw RawTable, epoch bool) (*models.Table, NormalizeStats, error) {
	stats := NormalizeStats{ByStrategy: map[string]int{}}
	m := schema.Map(id, raw.Header)
	if _, ok := m[models.FieldDate]; !ok {
		return nil, stats, fmt.Errorf("no date column in %v", raw.Header)
	}
	fields := m.Fields()
	withNet := fields.Has(models.FieldGross) &&
		(id == models.SourceSales || id == models.SourceSubscriptions)
	if withNet {
		fields.Add(models.FieldNet)
	}
	dates := normalize.NewDateParser(epoch)
	stats.DateChain = dates.Strategies()

	rows := make([]models.Record, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		d, strategy, ok := dates.Parse(m.Cell(row, models.FieldDate))
		if !ok {
			stats.BadDate++
			continue
		}
		if d.Before(models.BusinessStart) {
			stats.BeforeStart++
			continue
		}
		stats.ByStrategy[strategy]++
		r := models.Record{Date: d}
		for _, f := range monetary {
			if fields.Has(f) {
				setAmount(&r, f, normalize.NonNegative(normalize.Amount(m.Cell(row, f))))
			}
		}
		r.Impressions = normalize.Count(m.Cell(row, models.FieldImpressions))
		r.Clicks = normalize.Count(m.Cell(row, models.FieldClicks))
		r.Conversions = normalize.Count(m.Cell(row, models.FieldConversions))
		r.Status = strings.TrimSpace(m.Cell(row, models.FieldStatus))
		r.SubscriptionStatus = strings.TrimSpace(m.Cell(row, models.FieldSubscriptionStatus))
		r.Product = strings.TrimSpace(m.Cell(row, models.FieldProduct))
		r.Plan = strings.TrimSpace(m.Cell(row, models.FieldPlan))
		r.Campaign = strings.TrimSpace(m.Cell(row, models.FieldCampaign))

		if withNet {
			r.Net = r.Gross - r.Fee
			if id == models.SourceSales {
				r.Net -= r.Commission
			}
		}
		rows = append(rows, r)
	}
	return &models.Table{Source: id, Fields: fields, Rows: rows}, stats, nil
}

func setAmount(r *models.Record, f models.Field, v float64) {
	switch f {
	case models.FieldGross:
		r.Gross = v
	case models.FieldFee:
		r.Fee = v
	case models.FieldCommission:
		r.Commission = v
	case models.FieldRefunded:
		r.Refunded = v
	case models.FieldSpend:
		r.Spend = v
	case models.FieldAmount:
		r.Amount = v
	}
}
