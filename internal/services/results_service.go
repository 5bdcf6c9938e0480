package services

import (
	"math"
	"sort"

	"github.com/kickhr/kickhr/internal/models"
)

// ResultsStore abstracts the read side needed for assessor review.
type ResultsStore interface {
	GetAssessmentType(id string) *models.AssessmentType
	ListQuestions(assessmentTypeID string) []*models.Question
	GetSession(id string) *models.Session
	ListCompletedSessions(assessmentTypeID string) []*models.Session
	ListSessionsByUser(userID string) []*models.Session
	GetUser(id string) *models.User
}

// ResultsService exposes completed sessions to assessors: listings, result
// detail, and per-type aggregates.
type ResultsService struct {
	store ResultsStore
}

func NewResultsService(store ResultsStore) *ResultsService {
	return &ResultsService{store: store}
}

// ResultSummary is one row of a results listing.
type ResultSummary struct {
	SessionID        string `json:"session_id"`
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name,omitempty"`
	AssessmentTypeID string `json:"assessment_type_id"`
	StartedAt        string `json:"started_at"`
	CompletedAt      string `json:"completed_at"`
	Overall          int    `json:"overall"`
}

// AnsweredQuestion pairs a question with the option the candidate chose.
type AnsweredQuestion struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	OptionID   string `json:"option_id"`
	OptionText string `json:"option_text"`
	Value      int    `json:"value"`
	Trait      string `json:"trait,omitempty"`
}

// ResultDetail is the full view of one completed session.
type ResultDetail struct {
	Session  *models.Session    `json:"session"`
	User     *models.User       `json:"user,omitempty"`
	Answered []AnsweredQuestion `json:"answered"`
	Skipped  int                `json:"skipped"`
	TypeName string             `json:"type_name,omitempty"`
	TypeID   string             `json:"type_id"`
}

// TraitAggregate summarizes one trait across all completed sessions of a
// type. Histogram buckets trait scores into deciles (0-9, 10-19, ... 90-100).
type TraitAggregate struct {
	Trait     string  `json:"trait"`
	MeanScore float64 `json:"mean_score"`
	Count     int     `json:"count"`
	Histogram []int   `json:"histogram"`
}

// DailyCount is one point of a completion timeseries.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TypeSummary aggregates all completed sessions of one assessment type.
// Alpha is Cronbach's alpha over the per-session trait-score matrix, a
// rough internal-consistency signal across the type's traits.
type TypeSummary struct {
	AssessmentTypeID string           `json:"assessment_type_id"`
	TotalCompleted   int              `json:"total_completed"`
	MeanOverall      float64          `json:"mean_overall"`
	Traits           []TraitAggregate `json:"traits"`
	Timeseries       []DailyCount     `json:"timeseries"`
	Alpha            float64          `json:"alpha"`
	N                int              `json:"n"`
}

// ListResults returns summaries for all completed sessions of a type,
// newest completion first.
func (s *ResultsService) ListResults(assessmentTypeID string) ([]ResultSummary, error) {
	if s.store.GetAssessmentType(assessmentTypeID) == nil {
		return nil, NewNotFoundError("assessment type not found")
	}
	sessions := s.store.ListCompletedSessions(assessmentTypeID)
	out := make([]ResultSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, s.summaryOf(sess))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt > out[j].CompletedAt })
	return out, nil
}

// UserResults returns summaries for one candidate's completed sessions.
func (s *ResultsService) UserResults(userID string) []ResultSummary {
	sessions := s.store.ListSessionsByUser(userID)
	out := []ResultSummary{}
	for _, sess := range sessions {
		if sess.Status != models.StatusCompleted {
			continue
		}
		out = append(out, s.summaryOf(sess))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt > out[j].CompletedAt })
	return out
}

// Result returns the full detail of one completed session, including the
// answered questions resolved against the current catalog. Answers whose
// question or option no longer resolves count as skipped.
func (s *ResultsService) Result(sessionID string) (*ResultDetail, error) {
	sess := s.store.GetSession(sessionID)
	if sess == nil {
		return nil, NewNotFoundError("session not found")
	}
	if sess.Status != models.StatusCompleted {
		return nil, NewInvalidError("session not completed")
	}
	questions := s.store.ListQuestions(sess.AssessmentTypeID)
	byID := make(map[string]*models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	detail := &ResultDetail{
		Session:  sess,
		User:     s.store.GetUser(sess.UserID),
		Answered: []AnsweredQuestion{},
		TypeID:   sess.AssessmentTypeID,
	}
	if at := s.store.GetAssessmentType(sess.AssessmentTypeID); at != nil {
		detail.TypeName = at.Name
	}
	answered := map[string]bool{}
	for _, a := range sess.Answers {
		q := byID[a.QuestionID]
		if q == nil {
			continue
		}
		opt := findOption(q, a.OptionID)
		if opt == nil {
			continue
		}
		answered[q.ID] = true
		detail.Answered = append(detail.Answered, AnsweredQuestion{
			QuestionID: q.ID,
			Text:       q.Text,
			OptionID:   opt.ID,
			OptionText: opt.Text,
			Value:      opt.Value,
			Trait:      opt.Trait,
		})
	}
	for _, q := range questions {
		if !answered[q.ID] {
			detail.Skipped++
		}
	}
	return detail, nil
}

// Summary aggregates completed sessions of a type: mean overall, per-trait
// means with decile histograms, a completion timeseries, and alpha over the
// trait-score matrix.
func (s *ResultsService) Summary(assessmentTypeID string) (*TypeSummary, error) {
	if s.store.GetAssessmentType(assessmentTypeID) == nil {
		return nil, NewNotFoundError("assessment type not found")
	}
	sessions := s.store.ListCompletedSessions(assessmentTypeID)

	summary := &TypeSummary{
		AssessmentTypeID: assessmentTypeID,
		TotalCompleted:   len(sessions),
		Traits:           []TraitAggregate{},
		Timeseries:       []DailyCount{},
	}
	if len(sessions) == 0 {
		return summary, nil
	}

	overallSum := 0
	traitSums := map[string]int{}
	traitCounts := map[string]int{}
	traitHists := map[string][]int{}
	byDay := map[string]int{}
	for _, sess := range sessions {
		if sess.Score == nil {
			continue
		}
		overallSum += sess.Score.Overall
		for _, b := range sess.Score.Breakdown {
			traitSums[b.Trait] += b.Score
			traitCounts[b.Trait]++
			if traitHists[b.Trait] == nil {
				traitHists[b.Trait] = make([]int, 10)
			}
			traitHists[b.Trait][decile(b.Score)]++
		}
		if sess.CompletedAt != nil {
			byDay[sess.CompletedAt.UTC().Format("2006-01-02")]++
		}
	}
	summary.MeanOverall = round1(float64(overallSum) / float64(len(sessions)))

	traits := make([]string, 0, len(traitSums))
	for t := range traitSums {
		traits = append(traits, t)
	}
	sort.Strings(traits)
	for _, t := range traits {
		summary.Traits = append(summary.Traits, TraitAggregate{
			Trait:     t,
			MeanScore: round1(float64(traitSums[t]) / float64(traitCounts[t])),
			Count:     traitCounts[t],
			Histogram: traitHists[t],
		})
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		summary.Timeseries = append(summary.Timeseries, DailyCount{Date: d, Count: byDay[d]})
	}

	matrix := buildTraitMatrix(sessions, traits)
	summary.Alpha = cronbachAlpha(matrix)
	summary.N = len(matrix)
	return summary, nil
}

func (s *ResultsService) summaryOf(sess *models.Session) ResultSummary {
	out := ResultSummary{
		SessionID:        sess.ID,
		UserID:           sess.UserID,
		AssessmentTypeID: sess.AssessmentTypeID,
		StartedAt:        sess.StartedAt.UTC().Format(timeLayout),
	}
	if sess.CompletedAt != nil {
		out.CompletedAt = sess.CompletedAt.UTC().Format(timeLayout)
	}
	if sess.Score != nil {
		out.Overall = sess.Score.Overall
	}
	if u := s.store.GetUser(sess.UserID); u != nil {
		out.UserName = u.Name
	}
	return out
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func decile(score int) int {
	d := score / 10
	if d < 0 {
		return 0
	}
	if d > 9 {
		return 9
	}
	return d
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// buildTraitMatrix keeps only sessions whose breakdown covers every trait
// observed for the type, shaped [nSessions][nTraits].
func buildTraitMatrix(sessions []*models.Session, traits []string) [][]float64 {
	matrix := make([][]float64, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Score == nil {
			continue
		}
		byTrait := make(map[string]float64, len(sess.Score.Breakdown))
		for _, b := range sess.Score.Breakdown {
			byTrait[b.Trait] = float64(b.Score)
		}
		row := make([]float64, 0, len(traits))
		complete := true
		for _, t := range traits {
			v, ok := byTrait[t]
			if !ok {
				complete = false
				break
			}
			row = append(row, v)
		}
		if complete {
			matrix = append(matrix, row)
		}
	}
	return matrix
}

// cronbachAlpha computes Cronbach's alpha for a [nSessions][nTraits] matrix
// using population variance throughout, clamped to [0,1].
func cronbachAlpha(matrix [][]float64) float64 {
	n := len(matrix)
	if n == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}

	means := make([]float64, k)
	totals := make([]float64, n)
	for i := 0; i < n; i++ {
		row := matrix[i]
		if len(row) != k {
			return 0
		}
		for j := 0; j < k; j++ {
			means[j] += row[j]
			totals[i] += row[j]
		}
	}
	for j := 0; j < k; j++ {
		means[j] /= float64(n)
	}

	var sumItemVars float64
	for j := 0; j < k; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			d := matrix[i][j] - means[j]
			sum += d * d
		}
		sumItemVars += sum / float64(n)
	}

	var totalMean float64
	for i := 0; i < n; i++ {
		totalMean += totals[i]
	}
	totalMean /= float64(n)
	var totalVar float64
	for i := 0; i < n; i++ {
		d := totals[i] - totalMean
		totalVar += d * d
	}
	totalVar /= float64(n)
	if totalVar == 0 {
		return 0
	}

	kf := float64(k)
	alpha := (kf / (kf - 1.0)) * (1.0 - (sumItemVars / totalVar))
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}
