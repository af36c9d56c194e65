package rules

import (
	"testing"
	"time"

	"isoscreen/internal/catalog"
	"isoscreen/internal/classifier"
)

func verdict(status catalog.Status) classifier.Verdict {
	return classifier.Verdict{Status: status, Timestamp: time.Now()}
}

func verdictSet(statuses map[string]catalog.Status) map[string]classifier.Verdict {
	out := make(map[string]classifier.Verdict, len(statuses))
	for id, st := range statuses {
		out[id] = verdict(st)
	}
	return out
}

const (
	pos = catalog.StatusPositive
	neg = catalog.StatusNegative
)

func TestEvaluateCriterionA(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]catalog.Status
		want     bool
		settled  bool
	}{
		{"all positive", map[string]catalog.Status{"A1": pos, "A2": pos, "A3": pos}, true, true},
		{"a1 only positive", map[string]catalog.Status{"A1": pos, "A3": pos}, true, true},
		{"a2 only positive", map[string]catalog.Status{"A2": pos, "A3": pos}, true, true},
		{"or known false", map[string]catalog.Status{"A1": neg, "A2": neg, "A3": pos}, false, true},
		{"a1 negative alone settles the or", map[string]catalog.Status{"A1": neg, "A3": pos}, false, true},
		{"a2 negative alone settles the or", map[string]catalog.Status{"A2": neg, "A3": pos}, false, true},
		{"a3 negative with a1 known", map[string]catalog.Status{"A1": pos, "A3": neg}, false, true},
		{"a3 negative alone stays open", map[string]catalog.Status{"A3": neg}, false, false},
		{"a3 missing", map[string]catalog.Status{"A1": pos, "A2": pos}, false, false},
		{"nothing", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(verdictSet(tt.statuses))
			v, ok := got["A"]
			if ok != tt.settled {
				t.Fatalf("A settled = %v, want %v", ok, tt.settled)
			}
			if ok && v != tt.want {
				t.Fatalf("A = %v, want %v", v, tt.want)
			}
		})
	}
}

func TestEvaluatePairCriteria(t *testing.T) {
	got := Evaluate(verdictSet(map[string]catalog.Status{"B1": pos, "B2": pos, "C1": pos}))
	if v, ok := got["B"]; !ok || !v {
		t.Fatalf("B = %v (settled %v), want true", v, ok)
	}
	if _, ok := got["C"]; ok {
		t.Fatalf("C settled with C2 missing")
	}

	got = Evaluate(verdictSet(map[string]catalog.Status{"C1": pos, "C2": neg}))
	if v, ok := got["C"]; !ok || v {
		t.Fatalf("C = %v (settled %v), want false", v, ok)
	}
}

func TestEvaluateCriterionD(t *testing.T) {
	tests := []struct {
		name     string
		statuses map[string]catalog.Status
		want     bool
		settled  bool
	}{
		{"first pair positive", map[string]catalog.Status{"D1": pos, "D1_duration": pos}, true, true},
		{"second pair positive", map[string]catalog.Status{"D1": neg, "D2": pos, "D2_duration": pos}, true, true},
		{"both pairs negative", map[string]catalog.Status{"D1": neg, "D2": neg}, false, true},
		{"pair cut short by negative gate", map[string]catalog.Status{"D1": neg, "D2": pos}, false, false},
		{"positive gate needs duration", map[string]catalog.Status{"D1": pos, "D2": neg}, false, false},
		{"failed first pair defers to second", map[string]catalog.Status{"D1": pos, "D1_duration": neg, "D2": neg}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(verdictSet(tt.statuses))
			v, ok := got["D"]
			if ok != tt.settled {
				t.Fatalf("D settled = %v, want %v", ok, tt.settled)
			}
			if ok && v != tt.want {
				t.Fatalf("D = %v, want %v", v, tt.want)
			}
		})
	}
}

func TestEvaluateIgnoresUnsettledStatuses(t *testing.T) {
	got := Evaluate(map[string]classifier.Verdict{
		"B1": verdict(catalog.StatusClarification),
		"B2": verdict(pos),
	})
	if _, ok := got["B"]; ok {
		t.Fatalf("B settled from a clarification verdict")
	}
}

func TestShouldStopEarly(t *testing.T) {
	tests := []struct {
		name     string
		criteria map[string]bool
		want     bool
	}{
		{"all false", map[string]bool{"A": false, "B": false, "C": false}, true},
		{"all false with d true", map[string]bool{"A": false, "B": false, "C": false, "D": true}, true},
		{"a true", map[string]bool{"A": true, "B": false, "C": false}, false},
		{"a absent", map[string]bool{"B": false, "C": false}, false},
		{"b absent", map[string]bool{"A": false, "C": false}, false},
		{"c absent", map[string]bool{"A": false, "B": false}, false},
		{"empty", map[string]bool{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldStopEarly(tt.criteria); got != tt.want {
				t.Fatalf("ShouldStopEarly() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFinalDiagnosisAllCombinations(t *testing.T) {
	bools := []bool{false, true}
	for _, a := range bools {
		for _, b := range bools {
			for _, c := range bools {
				for _, d := range bools {
					criteria := map[string]bool{"A": a, "B": b, "C": c, "D": d}
					var want Diagnosis
					switch {
					case a && b && c && d:
						want = DiagnosisSevere
					case b && c && d:
						want = DiagnosisSocial
					case !b && !c && !d:
						want = DiagnosisNormal
					default:
						want = DiagnosisInsufficient
					}
					if got := FinalDiagnosis(criteria); got != want {
						t.Fatalf("FinalDiagnosis(A=%v B=%v C=%v D=%v) = %q, want %q", a, b, c, d, got, want)
					}
				}
			}
		}
	}
}

func TestFinalDiagnosisRequiresBandC(t *testing.T) {
	tests := []map[string]bool{
		{"A": true, "C": false, "D": true},
		{"A": true, "B": false, "D": true},
		{"A": true, "D": true},
		{},
	}
	for _, criteria := range tests {
		if got := FinalDiagnosis(criteria); got != DiagnosisInsufficient {
			t.Fatalf("FinalDiagnosis(%v) = %q, want %q", criteria, got, DiagnosisInsufficient)
		}
	}
}

func TestFinalDiagnosisUndeterminedD(t *testing.T) {
	if got := FinalDiagnosis(map[string]bool{"A": false, "B": false, "C": false}); got != DiagnosisInsufficient {
		t.Fatalf("FinalDiagnosis() = %q, want %q", got, DiagnosisInsufficient)
	}
	if got := FinalDiagnosis(map[string]bool{"A": false, "B": true, "C": true}); got != DiagnosisInsufficient {
		t.Fatalf("FinalDiagnosis() = %q, want %q", got, DiagnosisInsufficient)
	}
}
