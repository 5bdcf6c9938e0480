package services

import (
	"math"
	"testing"
	"time"

	"github.com/kickhr/kickhr/internal/models"
)

type stubResultsStore struct {
	types     map[string]*models.AssessmentType
	questions map[string][]*models.Question
	sessions  map[string]*models.Session
	users     map[string]*models.User
}

func newStubResultsStore() *stubResultsStore {
	return &stubResultsStore{
		types:     map[string]*models.AssessmentType{},
		questions: map[string][]*models.Question{},
		sessions:  map[string]*models.Session{},
		users:     map[string]*models.User{},
	}
}

func (s *stubResultsStore) GetAssessmentType(id string) *models.AssessmentType { return s.types[id] }

func (s *stubResultsStore) ListQuestions(assessmentTypeID string) []*models.Question {
	return s.questions[assessmentTypeID]
}

func (s *stubResultsStore) GetSession(id string) *models.Session { return s.sessions[id] }

func (s *stubResultsStore) ListCompletedSessions(assessmentTypeID string) []*models.Session {
	out := []*models.Session{}
	for _, sess := range s.sessions {
		if sess.AssessmentTypeID == assessmentTypeID && sess.Status == models.StatusCompleted {
			out = append(out, sess)
		}
	}
	return out
}

func (s *stubResultsStore) ListSessionsByUser(userID string) []*models.Session {
	out := []*models.Session{}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	return out
}

func (s *stubResultsStore) GetUser(id string) *models.User { return s.users[id] }

func completedSession(id, userID string, overall int, breakdown []models.TraitScore, completedAt time.Time) *models.Session {
	return &models.Session{
		ID:               id,
		UserID:           userID,
		AssessmentTypeID: "bf",
		Status:           models.StatusCompleted,
		StartedAt:        completedAt.Add(-10 * time.Minute),
		CompletedAt:      &completedAt,
		Score:            &models.Score{Overall: overall, Breakdown: breakdown},
	}
}

func resultsFixture() *stubResultsStore {
	store := newStubResultsStore()
	store.types["bf"] = &models.AssessmentType{ID: "bf", Name: "Big Five", Category: "personality"}
	store.users["u1"] = &models.User{ID: "u1", Name: "Emily", Email: "emily@example.com"}

	day1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	store.sessions["s1"] = completedSession("s1", "u1", 60, []models.TraitScore{
		{Trait: "Focus", Score: 40, Percentile: 41},
		{Trait: "Grit", Score: 80, Percentile: 77},
	}, day1)
	store.sessions["s2"] = completedSession("s2", "u2", 80, []models.TraitScore{
		{Trait: "Focus", Score: 60, Percentile: 59},
		{Trait: "Grit", Score: 100, Percentile: 95},
	}, day2)
	store.sessions["s3"] = &models.Session{
		ID: "s3", UserID: "u1", AssessmentTypeID: "bf",
		Status: models.StatusInProgress, StartedAt: day2,
	}
	return store
}

func TestListResultsNewestFirst(t *testing.T) {
	svc := NewResultsService(resultsFixture())

	got, err := svc.ListResults("bf")
	if err != nil {
		t.Fatalf("ListResults returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2 (in-progress must be excluded)", len(got))
	}
	if got[0].SessionID != "s2" || got[1].SessionID != "s1" {
		t.Fatalf("order = %s,%s, want s2,s1", got[0].SessionID, got[1].SessionID)
	}
	if got[1].UserName != "Emily" {
		t.Fatalf("user name = %q, want Emily", got[1].UserName)
	}

	if _, err := svc.ListResults("nope"); err == nil {
		t.Fatalf("unknown type accepted")
	}
}

func TestUserResults(t *testing.T) {
	svc := NewResultsService(resultsFixture())

	got := svc.UserResults("u1")
	if len(got) != 1 || got[0].SessionID != "s1" {
		t.Fatalf("user results = %+v, want only s1", got)
	}
	if got := svc.UserResults("nobody"); len(got) != 0 {
		t.Fatalf("results for unknown user = %+v, want empty", got)
	}
}

func TestResultDetail(t *testing.T) {
	store := resultsFixture()
	store.questions["bf"] = []*models.Question{
		likertQuestion("q1", "focus"),
		likertQuestion("q2", "grit"),
		likertQuestion("q3", "grit"),
	}
	sess := store.sessions["s1"]
	sess.Answers = []models.Answer{
		answer("q1", "q1-4"),
		answer("q2", "q2-5"),
		answer("gone", "gone-1"), // question no longer in the catalog
	}
	svc := NewResultsService(store)

	detail, err := svc.Result("s1")
	if err != nil {
		t.Fatalf("Result returned error: %v", err)
	}
	if detail.TypeName != "Big Five" || detail.User == nil || detail.User.Name != "Emily" {
		t.Fatalf("detail header = %+v / %+v", detail.TypeName, detail.User)
	}
	if len(detail.Answered) != 2 {
		t.Fatalf("answered = %d, want 2", len(detail.Answered))
	}
	if a := detail.Answered[0]; a.QuestionID != "q1" || a.Value != 4 || a.Trait != "focus" {
		t.Fatalf("answered[0] = %+v", a)
	}
	if detail.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1 (q3 unanswered)", detail.Skipped)
	}

	if _, err := svc.Result("s3"); err == nil {
		t.Fatalf("in-progress session accepted")
	}
	if _, err := svc.Result("nope"); err == nil {
		t.Fatalf("unknown session accepted")
	}
}

func TestSummaryAggregates(t *testing.T) {
	svc := NewResultsService(resultsFixture())

	sum, err := svc.Summary("bf")
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if sum.TotalCompleted != 2 {
		t.Fatalf("total completed = %d, want 2", sum.TotalCompleted)
	}
	if sum.MeanOverall != 70.0 {
		t.Fatalf("mean overall = %v, want 70", sum.MeanOverall)
	}
	if len(sum.Traits) != 2 || sum.Traits[0].Trait != "Focus" || sum.Traits[1].Trait != "Grit" {
		t.Fatalf("traits = %+v, want Focus,Grit sorted", sum.Traits)
	}
	focus := sum.Traits[0]
	if focus.MeanScore != 50.0 || focus.Count != 2 {
		t.Fatalf("focus aggregate = %+v, want mean 50 count 2", focus)
	}
	if focus.Histogram[4] != 1 || focus.Histogram[6] != 1 {
		t.Fatalf("focus histogram = %v, want hits in deciles 4 and 6", focus.Histogram)
	}
	if len(sum.Timeseries) != 2 || sum.Timeseries[0].Date != "2024-05-01" || sum.Timeseries[0].Count != 1 {
		t.Fatalf("timeseries = %+v", sum.Timeseries)
	}
	if sum.N != 2 {
		t.Fatalf("alpha n = %d, want 2", sum.N)
	}
	if sum.Alpha < 0 || sum.Alpha > 1 {
		t.Fatalf("alpha = %v, want within [0,1]", sum.Alpha)
	}
}

func TestSummaryEmptyType(t *testing.T) {
	store := newStubResultsStore()
	store.types["bf"] = &models.AssessmentType{ID: "bf", Name: "Big Five"}
	svc := NewResultsService(store)

	sum, err := svc.Summary("bf")
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if sum.TotalCompleted != 0 || sum.MeanOverall != 0 || len(sum.Traits) != 0 {
		t.Fatalf("empty summary = %+v", sum)
	}
}

func TestCronbachAlpha(t *testing.T) {
	// Perfectly correlated items drive alpha to the 1.0 clamp.
	perfect := [][]float64{{10, 10}, {20, 20}, {30, 30}}
	if got := cronbachAlpha(perfect); got != 1 {
		t.Fatalf("alpha(perfect) = %v, want 1", got)
	}

	// Hand-computed: items {1,2,3} and {3,2,1} cancel, total variance zero.
	if got := cronbachAlpha([][]float64{{1, 3}, {2, 2}, {3, 1}}); got != 0 {
		t.Fatalf("alpha(opposed) = %v, want 0", got)
	}

	mixed := [][]float64{{60, 70}, {80, 75}, {40, 55}}
	got := cronbachAlpha(mixed)
	if got < 0 || got > 1 || math.IsNaN(got) {
		t.Fatalf("alpha(mixed) = %v, want within [0,1]", got)
	}

	if got := cronbachAlpha(nil); got != 0 {
		t.Fatalf("alpha(nil) = %v, want 0", got)
	}
	if got := cronbachAlpha([][]float64{{10}, {20}}); got != 0 {
		t.Fatalf("alpha(single item) = %v, want 0", got)
	}
}

func TestDecileBuckets(t *testing.T) {
	cases := []struct{ score, want int }{
		{0, 0}, {9, 0}, {10, 1}, {55, 5}, {99, 9}, {100, 9},
	}
	for _, tc := range cases {
		if got := decile(tc.score); got != tc.want {
			t.Fatalf("decile(%d) = %d, want %d", tc.score, got, tc.want)
		}
	}
}
