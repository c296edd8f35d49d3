package period

import (
	"testing"
	"time"

	"github.com/AngelCh415/finsnap/internal/models"
)

func day2024(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

func table(dates ...time.Time) *models.Table {
	t := &models.Table{Source: models.SourceSales, Fields: models.NewFieldSet(models.FieldDate)}
	for _, d := range dates {
		t.Rows = append(t.Rows, models.Record{Date: d})
	}
	return t
}

func TestFilterAllIsIdentity(t *testing.T) {
	tbl := table(day2024(1, 1), day2024(3, 1))
	if got := Filter(tbl, All()); got != tbl {
		t.Fatal("unrestricted window should return the table unchanged")
	}
	if Filter(nil, Trailing(7)) != nil {
		t.Fatal("absent table should stay absent")
	}
}

func TestFilterTrailing(t *testing.T) {
	tbl := table(day2024(1, 1), day2024(1, 24), day2024(1, 25), day2024(1, 31))
	got := Filter(tbl, Trailing(7))
	// max = Jan 31, the boundary Jan 24 is kept
	if got.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", got.Len())
	}
	if !got.Rows[0].Date.Equal(day2024(1, 24)) {
		t.Fatalf("first kept row = %v", got.Rows[0].Date)
	}
	if tbl.Len() != 4 {
		t.Fatal("filter mutated its input")
	}
}

func TestFilterTrailingUsesDataNotClock(t *testing.T) {
	old := table(time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 2, 3, 0, 0, 0, 0, time.UTC))
	if got := Filter(old, Trailing(30)); got.Len() != 2 {
		t.Fatalf("expected both rows, got %d", got.Len())
	}
	if got := Filter(table(), Trailing(30)); got == nil || got.Len() != 0 {
		t.Fatal("empty table should filter to an empty table")
	}
}

func TestFilterCustom(t *testing.T) {
	tbl := table(
		day2024(1, 9),
		day2024(1, 10),
		time.Date(2024, 1, 20, 23, 59, 0, 0, time.UTC),
		day2024(1, 21),
		time.Time{},
	)
	got := Filter(tbl, Custom(day2024(1, 10), day2024(1, 20)))
	if got.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", got.Len())
	}
	if got.Rows[1].Date.Hour() != 23 {
		t.Fatal("end day should be included in full")
	}
}

func TestFilterInvalidWindow(t *testing.T) {
	tbl := table(day2024(1, 1))
	bad := Window{Mode: ModeCustom, Start: day2024(2, 1), End: day2024(1, 1)}
	if Filter(tbl, bad) != tbl {
		t.Fatal("invalid window should leave the table untouched")
	}
	if Filter(tbl, Window{Mode: "weird"}) != tbl {
		t.Fatal("unknown mode should leave the table untouched")
	}
}

func TestFilterAll(t *testing.T) {
	ds := models.Dataset{
		models.SourceSales: table(day2024(1, 1), day2024(1, 31)),
		models.SourceAds:   table(day2024(1, 31)),
	}
	out := FilterAll(ds, Trailing(7))
	if out[models.SourceSales].Len() != 1 || out[models.SourceAds].Len() != 1 {
		t.Fatalf("unexpected filtered dataset: %v", out)
	}
	if _, ok := out[models.SourceExpenses]; ok {
		t.Fatal("absent source appeared after filtering")
	}
}

func TestParse(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	cases := []struct {
		mode, start, end string
		want             Window
	}{
		{"", "", "", All()},
		{"all", "", "", All()},
		{"30d", "", "", Trailing(30)},
		{"180D", "", "", Trailing(180)},
		{"custom", "2024-01-10", "2024-01-20", Custom(day2024(1, 10), day2024(1, 20))},
		{"custom", "", "", Custom(models.BusinessStart, day2024(3, 15))},
	}
	for _, c := range cases {
		got, err := Parse(c.mode, c.start, c.end, now)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", c.mode, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q, %q, %q) = %+v, want %+v", c.mode, c.start, c.end, got, c.want)
		}
	}
	for _, bad := range [][3]string{{"45d", "", ""}, {"custom", "2024-02-01", "2024-01-01"}, {"custom", "10/01/2024", ""}} {
		if _, err := Parse(bad[0], bad[1], bad[2], now); err == nil {
			t.Errorf("Parse(%v) expected error", bad)
		}
	}
}

func TestLabel(t *testing.T) {
	if All().Label() != "all" || Trailing(15).Label() != "15d" || Custom(day2024(1, 1), day2024(1, 2)).Label() != "custom" {
		t.Fatal("unexpected labels")
	}
}
