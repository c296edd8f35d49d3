package metrics

import (
	"context"
	"time"

	"github.com/AngelCh415/finsnap/internal/models"
	"github.com/AngelCh415/finsnap/internal/period"
	"github.com/AngelCh415/finsnap/internal/telemetry"
)

// Loader is the part of the ingest loader a report pass needs.
type Loader interface {
	LoadAll(ctx context.Context) (models.Dataset, map[models.SourceID]string)
}

// Report is the output of one rendering pass: the metric snapshot plus
// the windowed tables it was computed from.
type Report struct {
	Window      period.Window              `json:"window"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Snapshot    models.Snapshot            `json:"snapshot"`
	Rows        map[models.SourceID]int    `json:"rows"`
	Status      map[models.SourceID]string `json:"status"`
	Tables      models.Dataset             `json:"-"`
	Full        models.Dataset             `json:"-"`
}

type Service struct {
	loader Loader
	tm     *telemetry.Metrics
	now    func() time.Time
}

func NewService(l Loader, tm *telemetry.Metrics) *Service {
	return &Service{loader: l, tm: tm, now: time.Now}
}

// Report loads every source (memoized), applies the window and computes a
// fresh snapshot. Absent sources contribute nothing.
func (s *Service) Report(ctx context.Context, w period.Window) Report {
	full, status := s.loader.LoadAll(ctx)
	windowed := period.FilterAll(full, w)
	rows := make(map[models.SourceID]int, len(models.Sources))
	for _, id := range models.Sources {
		rows[id] = windowed[id].Len()
	}
	s.tm.Reports.Inc()
	return Report{
		Window:      w,
		GeneratedAt: s.now().UTC(),
		Snapshot:    Compute(windowed, full),
		Rows:        rows,
		Status:      status,
		Tables:      windowed,
		Full:        full,
	}
}
