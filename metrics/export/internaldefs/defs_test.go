package internaldefs

import (
	"strings"
	"testing"

	"github.com/buraq-dev/keycore"
)

func TestDefinitionsUniqueAndPrefixed(t *testing.T) {
	seen := map[string]bool{}
	ids := map[keycore.MetricID]bool{}
	for _, def := range CounterDefs {
		if !strings.HasPrefix(def.Name, "buraq_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("counter %q must be buraq_*_total", def.Name)
		}
		if seen[def.Name] || ids[def.ID] {
			t.Fatalf("duplicate counter definition %q", def.Name)
		}
		seen[def.Name] = true
		ids[def.ID] = true
	}
	for _, def := range HistogramDefs {
		if !strings.HasSuffix(def.Name, "_seconds") {
			t.Fatalf("histogram %q must end in _seconds", def.Name)
		}
		if ids[def.ID] {
			t.Fatalf("histogram %q reuses a counter id", def.Name)
		}
	}
	if len(HistogramBounds) != 8 || len(HistogramBoundSuffix) != 8 {
		t.Fatal("expected eight bucket bounds")
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if NormalizeBuckets(make([]uint64, 12)) != ([8]uint64{}) {
		t.Fatal("expected extra buckets to be dropped")
	}
}
