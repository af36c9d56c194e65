// Package rules composes per-question verdicts into the four screening
// criteria and the final diagnosis.
package rules

import (
	"isoscreen/internal/catalog"
	"isoscreen/internal/classifier"
)

// Diagnosis labels the screening outcome.
type Diagnosis string

const (
	DiagnosisSevere       Diagnosis = "severe isolation"
	DiagnosisSocial       Diagnosis = "social isolation"
	DiagnosisNormal       Diagnosis = "normal"
	DiagnosisInsufficient Diagnosis = "insufficient information"
)

func positive(verdicts map[string]classifier.Verdict, id string) (bool, bool) {
	v, ok := verdicts[id]
	if !ok {
		return false, false
	}
	switch v.Status {
	case catalog.StatusPositive:
		return true, true
	case catalog.StatusNegative:
		return false, true
	default:
		return false, false
	}
}

// Evaluate derives every criterion whose member questions all carry a
// settled verdict. Criteria whose inputs are incomplete are omitted, so
// the returned map is a partial view that only ever grows.
func Evaluate(verdicts map[string]classifier.Verdict) map[string]bool {
	out := make(map[string]bool, 4)

	// A settles once A3 is known together with at least one of A1/A2.
	// An unsettled member of the OR counts as false.
	a1, okA1 := positive(verdicts, "A1")
	a2, okA2 := positive(verdicts, "A2")
	a3, okA3 := positive(verdicts, "A3")
	if okA3 && (okA1 || okA2) {
		out["A"] = a3 && (a1 || a2)
	}

	b1, okB1 := positive(verdicts, "B1")
	b2, okB2 := positive(verdicts, "B2")
	if okB1 && okB2 {
		out["B"] = b1 && b2
	}

	c1, okC1 := positive(verdicts, "C1")
	c2, okC2 := positive(verdicts, "C2")
	if okC1 && okC2 {
		out["C"] = c1 && c2
	}

	// D settles as soon as either pair is complete. A positive pair wins
	// outright; a negative first pair defers to the second.
	d1, okD1 := positive(verdicts, "D1")
	d1d, okD1d := positive(verdicts, "D1_duration")
	d2, okD2 := positive(verdicts, "D2")
	d2d, okD2d := positive(verdicts, "D2_duration")
	pair1Ready := okD1 && (okD1d || !d1)
	pair2Ready := okD2 && (okD2d || !d2)
	switch {
	case pair1Ready && d1 && d1d:
		out["D"] = true
	case pair2Ready && d2 && d2d:
		out["D"] = true
	case pair1Ready && pair2Ready:
		out["D"] = false
	}

	return out
}

// ShouldStopEarly reports whether the interview can skip the remaining
// battery: A, B and C are all settled and all false.
func ShouldStopEarly(criteria map[string]bool) bool {
	for _, k := range []string{"A", "B", "C"} {
		v, ok := criteria[k]
		if !ok || v {
			return false
		}
	}
	return true
}

// FinalDiagnosis maps settled criteria to the outcome label. B and C must
// both be settled for any label other than insufficient information.
func FinalDiagnosis(criteria map[string]bool) Diagnosis {
	b, okB := criteria["B"]
	c, okC := criteria["C"]
	if !okB || !okC {
		return DiagnosisInsufficient
	}
	a := criteria["A"]
	d, okD := criteria["D"]
	switch {
	case okD && a && b && c && d:
		return DiagnosisSevere
	case okD && b && c && d:
		return DiagnosisSocial
	case okD && !b && !c && !d:
		return DiagnosisNormal
	default:
		return DiagnosisInsufficient
	}
}
