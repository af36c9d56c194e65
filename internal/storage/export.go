package storage

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

func criterionCell(criteria map[string]bool, letter string) string {
	v, ok := criteria[letter]
	if !ok {
		return ""
	}
	return strconv.FormatBool(v)
}

// WriteCSV renders snapshots as a flat operator-facing table, one row per
// completed interview.
func WriteCSV(w io.Writer, snaps []Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"session_id", "completed_at", "diagnosis",
		"criterion_a", "criterion_b", "criterion_c", "criterion_d",
		"conversation_length", "total_clarifications",
	}); err != nil {
		return err
	}
	for _, snap := range snaps {
		row := []string{
			snap.SessionID,
			snap.CompletedAt.UTC().Format(time.RFC3339),
			string(snap.Diagnosis),
			criterionCell(snap.Criteria, "A"),
			criterionCell(snap.Criteria, "B"),
			criterionCell(snap.Criteria, "C"),
			criterionCell(snap.Criteria, "D"),
			strconv.Itoa(snap.ConversationLength),
			strconv.Itoa(snap.TotalClarifications),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
