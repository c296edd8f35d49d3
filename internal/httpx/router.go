package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AngelCh415/finsnap/internal/ingest"
	"github.com/AngelCh415/finsnap/internal/metrics"
	"github.com/AngelCh415/finsnap/internal/period"
	"github.com/AngelCh415/finsnap/internal/report"
	"github.com/AngelCh415/finsnap/internal/telemetry"
	"github.com/AngelCh415/finsnap/internal/utils"
)

type sourceView struct {
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	Rows       int       `json:"rows"`
	Dropped    int       `json:"dropped"`
	Hash       string    `json:"hash,omitempty"`
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loaded_at"`
}

func NewRouter(log *slog.Logger, loader *ingest.Loader, mSvc *metrics.Service, tm *telemetry.Metrics) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", tm.Handler())

	mux.Get("/report", func(w http.ResponseWriter, r *http.Request) {
		win, err := windowFrom(r)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		rep := mSvc.Report(r.Context(), win)
		writeJSON(w, map[string]any{
			"window":       rep.Window,
			"label":        rep.Window.Label(),
			"generated_at": rep.GeneratedAt,
			"metrics":      rep.Snapshot.Map(),
			"snapshot":     rep.Snapshot,
			"rows":         rep.Rows,
			"status":       rep.Status,
		})
	})

	mux.Get("/report/breakdowns", func(w http.ResponseWriter, r *http.Request) {
		win, err := windowFrom(r)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		writeJSON(w, report.Build(mSvc.Report(r.Context(), win)))
	})

	mux.Get("/sources", func(w http.ResponseWriter, r *http.Request) {
		entries := loader.Entries()
		out := make([]sourceView, 0, len(entries))
		for _, e := range entries {
			out = append(out, sourceView{
				Source:     string(e.Source),
				Status:     e.Status,
				Rows:       e.Table.Len(),
				Dropped:    e.Dropped,
				Hash:       e.Hash,
				Generation: e.Generation,
				LoadedAt:   e.LoadedAt,
			})
		}
		writeJSON(w, out)
	})

	mux.Post("/refresh", func(w http.ResponseWriter, r *http.Request) {
		g := loader.Refresh()
		writeJSONStatus(w, 202, map[string]any{"generation": g})
	})

	return mux
}

func windowFrom(r *http.Request) (period.Window, error) {
	q := r.URL.Query()
	return period.Parse(q.Get("period"), q.Get("start"), q.Get("end"), time.Now())
}

func writeJSON(w http.ResponseWriter, v any) { writeJSONStatus(w, 200, v) }

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
