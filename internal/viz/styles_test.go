package viz

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSparkline(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}

	s := Sparkline(values, 20)
	if n := utf8.RuneCountInString(s); n != 20 {
		t.Errorf("sparkline has %d runes, want 20", n)
	}
	if !strings.HasPrefix(s, "▁") {
		t.Errorf("sparkline %q should start at the lowest bar", s)
	}

	if got := Sparkline([]float64{1, 2}, 10); utf8.RuneCountInString(got) != 2 {
		t.Errorf("short input rendered %q", got)
	}
	if got := Sparkline(nil, 4); got != "────" {
		t.Errorf("empty input rendered %q", got)
	}
	if Sparkline(values, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestReport(t *testing.T) {
	out := Report("Lagrange points", []KV{{"L1", "0.836918"}, {"L4 (x, y)", "0.4878, 0.8660"}})
	for _, want := range []string{"Lagrange points", "L1", "0.836918", "L4 (x, y)"} {
		if !strings.Contains(out, want) {
			t.Errorf("report is missing %q:\n%s", want, out)
		}
	}
}

func TestBadges(t *testing.T) {
	if !strings.Contains(StabilityBadge(true), "stable") || !strings.Contains(StabilityBadge(false), "unstable") {
		t.Error("stability badge text")
	}
	if !strings.Contains(DriftBadge(1e-9, 1e-6), "1.000e-09") {
		t.Errorf("drift badge = %q", DriftBadge(1e-9, 1e-6))
	}
}
