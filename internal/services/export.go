package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"

	"github.com/kickhr/kickhr/internal/models"
)

// ResultRow is one line of the long-format export: one trait of one
// completed session.
type ResultRow struct {
	SessionID        string
	UserID           string
	AssessmentTypeID string
	Trait            string
	Score            int
	Percentile       int
	CompletedAt      string // ISO8601; string keeps the CSV layer dumb
}

// ExportLongCSV renders completed results in long format, one row per
// (session, trait).
func ExportLongCSV(rows []ResultRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"session_id", "user_id", "assessment_type_id", "trait", "score", "percentile", "completed_at"})
	for _, r := range rows {
		rec := []string{
			r.SessionID,
			r.UserID,
			r.AssessmentTypeID,
			r.Trait,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.Percentile),
			r.CompletedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportWideCSV renders one row per completed session with an overall
// column and one column per trait present in any session. Trait columns
// are sorted for stable output; missing traits render as empty cells.
func ExportWideCSV(sessions []*models.Session) ([]byte, error) {
	traitSet := map[string]struct{}{}
	for _, sess := range sessions {
		if sess.Score == nil {
			continue
		}
		for _, b := range sess.Score.Breakdown {
			traitSet[b.Trait] = struct{}{}
		}
	}
	traits := make([]string, 0, len(traitSet))
	for t := range traitSet {
		traits = append(traits, t)
	}
	sort.Strings(traits)

	ordered := append([]*models.Session(nil), sessions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := append([]string{"session_id", "user_id", "overall"}, traits...)
	_ = w.Write(header)
	for _, sess := range ordered {
		if sess.Score == nil {
			continue
		}
		byTrait := make(map[string]int, len(sess.Score.Breakdown))
		for _, b := range sess.Score.Breakdown {
			byTrait[b.Trait] = b.Score
		}
		row := make([]string, 0, 3+len(traits))
		row = append(row, sess.ID, sess.UserID, strconv.Itoa(sess.Score.Overall))
		for _, t := range traits {
			if v, ok := byTrait[t]; ok {
				row = append(row, strconv.Itoa(v))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// LongRowsFor flattens completed sessions into long-format rows.
func LongRowsFor(sessions []*models.Session) []ResultRow {
	rows := make([]ResultRow, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Score == nil {
			continue
		}
		completed := ""
		if sess.CompletedAt != nil {
			completed = sess.CompletedAt.UTC().Format(timeLayout)
		}
		for _, b := range sess.Score.Breakdown {
			rows = append(rows, ResultRow{
				SessionID:        sess.ID,
				UserID:           sess.UserID,
				AssessmentTypeID: sess.AssessmentTypeID,
				Trait:            b.Trait,
				Score:            b.Score,
				Percentile:       b.Percentile,
				CompletedAt:      completed,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SessionID != rows[j].SessionID {
			return rows[i].SessionID < rows[j].SessionID
		}
		return rows[i].Trait < rows[j].Trait
	})
	return rows
}
