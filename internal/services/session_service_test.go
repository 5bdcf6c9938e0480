package services

import (
	"testing"
	"time"

	"github.com/kickhr/kickhr/internal/models"
)

type stubSessionStore struct {
	sessions map[string]*models.Session
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: map[string]*models.Session{}}
}

func (s *stubSessionStore) GetSession(id string) *models.Session {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	cp := *sess
	cp.Answers = append([]models.Answer(nil), sess.Answers...)
	return &cp
}

func (s *stubSessionStore) PutSession(sess *models.Session) {
	cp := *sess
	cp.Answers = append([]models.Answer(nil), sess.Answers...)
	s.sessions[sess.ID] = &cp
}

func (s *stubSessionStore) DeleteActiveSessionsByUser(userID string) int {
	removed := 0
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.Status == models.StatusInProgress {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

type stubCatalog struct {
	types     map[string]*models.AssessmentType
	questions map[string][]*models.Question
}

func (c *stubCatalog) GetAssessmentType(id string) *models.AssessmentType {
	return c.types[id]
}

func (c *stubCatalog) ListQuestions(assessmentTypeID string) []*models.Question {
	return c.questions[assessmentTypeID]
}

func newTwoQuestionCatalog() *stubCatalog {
	return &stubCatalog{
		types: map[string]*models.AssessmentType{
			"big-five": {ID: "big-five", Name: "Big Five", Category: "personality"},
			"empty":    {ID: "empty", Name: "Empty", Category: "skills"},
		},
		questions: map[string][]*models.Question{
			"big-five": {likertQuestion("q1", "a"), likertQuestion("q2", "b")},
		},
	}
}

func newTestSessionService(store *stubSessionStore, catalog *stubCatalog) *SessionService {
	svc := NewSessionService(store, catalog)
	base := time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	n := 0
	svc.idGen = func() string {
		n++
		return "sess-" + string(rune('0'+n))
	}
	return svc
}

func TestStartUnknownType(t *testing.T) {
	svc := newTestSessionService(newStubSessionStore(), newTwoQuestionCatalog())
	_, err := svc.Start("nope", "u1")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("Start unknown type err = %v, want not_found", err)
	}
}

func TestStartEmptyType(t *testing.T) {
	svc := newTestSessionService(newStubSessionStore(), newTwoQuestionCatalog())
	_, err := svc.Start("empty", "u1")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("Start empty type err = %v, want invalid", err)
	}
}

func TestStartReplacesActiveSession(t *testing.T) {
	store := newStubSessionStore()
	svc := newTestSessionService(store, newTwoQuestionCatalog())

	first, err := svc.Start("big-five", "u1")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	second, err := svc.Start("big-five", "u1")
	if err != nil {
		t.Fatalf("second Start returned error: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("retake reused session id %q", first.ID)
	}
	if store.GetSession(first.ID) != nil {
		t.Fatalf("prior in-progress session %q survived a restart", first.ID)
	}
	if got := store.GetSession(second.ID); got == nil || got.Status != models.StatusInProgress {
		t.Fatalf("new session missing or wrong status: %+v", got)
	}
}

func TestAnswerReplacesPrior(t *testing.T) {
	store := newStubSessionStore()
	svc := newTestSessionService(store, newTwoQuestionCatalog())
	sess, _ := svc.Start("big-five", "u1")

	if _, err := svc.Answer(sess.ID, "q1-2"); err != nil {
		t.Fatalf("first Answer returned error: %v", err)
	}
	updated, err := svc.Answer(sess.ID, "q1-5")
	if err != nil {
		t.Fatalf("second Answer returned error: %v", err)
	}
	if len(updated.Answers) != 1 {
		t.Fatalf("answers = %d, want 1 (re-answer must replace)", len(updated.Answers))
	}
	a := updated.Answers[0]
	if a.QuestionID != "q1" || a.OptionID != "q1-5" {
		t.Fatalf("answer = %+v, want q1/q1-5", a)
	}
}

func TestAnswerTimestampAdvancesOnReplace(t *testing.T) {
	store := newStubSessionStore()
	svc := newTestSessionService(store, newTwoQuestionCatalog())
	sess, _ := svc.Start("big-five", "u1")

	first, _ := svc.Answer(sess.ID, "q1-2")
	firstAt := first.Answers[0].AnsweredAt
	second, _ := svc.Answer(sess.ID, "q1-3")
	if !second.Answers[0].AnsweredAt.After(firstAt) {
		t.Fatalf("replacement kept stale timestamp %v", second.Answers[0].AnsweredAt)
	}
}

func TestAnswerRejectsForeignOption(t *testing.T) {
	svc := newTestSessionService(newStubSessionStore(), newTwoQuestionCatalog())
	sess, _ := svc.Start("big-five", "u1")

	_, err := svc.Answer(sess.ID, "q2-1") // belongs to q2, current question is q1
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("Answer foreign option err = %v, want invalid", err)
	}
}

func TestAnswerUnknownSession(t *testing.T) {
	svc := newTestSessionService(newStubSessionStore(), newTwoQuestionCatalog())
	_, err := svc.Answer("nope", "q1-1")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorNotFound {
		t.Fatalf("Answer unknown session err = %v, want not_found", err)
	}
}

func TestNavigationBounds(t *testing.T) {
	svc := newTestSessionService(newStubSessionStore(), newTwoQuestionCatalog())
	sess, _ := svc.Start("big-five", "u1")

	if updated, moved, _ := svc.Previous(sess.ID); moved || updated.Current != 0 {
		t.Fatalf("Previous at index 0: moved=%v current=%d, want no-op", moved, updated.Current)
	}
	updated, moved, err := svc.Next(sess.ID)
	if err != nil || !moved || updated.Current != 1 {
		t.Fatalf("Next: moved=%v current=%d err=%v, want moved to 1", moved, updated.Current, err)
	}
	if updated, moved, _ = svc.Next(sess.ID); moved || updated.Current != 1 {
		t.Fatalf("Next at last index: moved=%v current=%d, want no-op", moved, updated.Current)
	}
	if updated, moved, _ = svc.Previous(sess.ID); !moved || updated.Current != 0 {
		t.Fatalf("Previous: moved=%v current=%d, want moved to 0", moved, updated.Current)
	}
}

func TestProgress(t *testing.T) {
	svc := newTestSessionService(newStubSessionStore(), newTwoQuestionCatalog())
	sess, _ := svc.Start("big-five", "u1")

	if got := svc.Progress(sess.ID); got.Current != 1 || got.Total != 2 || got.Percentage != 50 {
		t.Fatalf("progress at index 0 = %+v, want {1 2 50}", got)
	}
	_, _, _ = svc.Next(sess.ID)
	if got := svc.Progress(sess.ID); got.Current != 2 || got.Total != 2 || got.Percentage != 100 {
		t.Fatalf("progress at index 1 = %+v, want {2 2 100}", got)
	}
	if got := svc.Progress("unknown"); got != (Progress{}) {
		t.Fatalf("progress for unknown session = %+v, want zero triple", got)
	}
}

func TestCompleteEndToEnd(t *testing.T) {
	store := newStubSessionStore()
	svc := newTestSessionService(store, newTwoQuestionCatalog())
	sess, _ := svc.Start("big-five", "u1")

	if _, err := svc.Answer(sess.ID, "q1-5"); err != nil {
		t.Fatalf("answer q1: %v", err)
	}
	if _, moved, err := svc.Next(sess.ID); err != nil || !moved {
		t.Fatalf("next: moved=%v err=%v", moved, err)
	}
	if _, err := svc.Answer(sess.ID, "q2-1"); err != nil {
		t.Fatalf("answer q2: %v", err)
	}

	score, err := svc.Complete(sess.ID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if len(score.Breakdown) != 2 {
		t.Fatalf("breakdown entries = %d, want 2", len(score.Breakdown))
	}
	if b := score.Breakdown[0]; b.Trait != "A" || b.Score != 100 {
		t.Fatalf("breakdown[0] = %+v, want A/100", b)
	}
	if b := score.Breakdown[1]; b.Trait != "B" || b.Score != 20 {
		t.Fatalf("breakdown[1] = %+v, want B/20", b)
	}
	if score.Overall != 60 {
		t.Fatalf("overall = %d, want 60", score.Overall)
	}
	for _, b := range score.Breakdown {
		if b.Percentile < 0 || b.Percentile > 100 {
			t.Fatalf("percentile %d out of range for trait %s", b.Percentile, b.Trait)
		}
	}

	stored := store.GetSession(sess.ID)
	if stored.Status != models.StatusCompleted || stored.CompletedAt == nil || stored.Score == nil {
		t.Fatalf("session not finalized: %+v", stored)
	}

	// Completing again returns the attached score, not a recomputation.
	again, err := svc.Complete(sess.ID)
	if err != nil {
		t.Fatalf("second Complete returned error: %v", err)
	}
	if again.Overall != score.Overall || len(again.Breakdown) != len(score.Breakdown) {
		t.Fatalf("second Complete score = %+v, want %+v", again, score)
	}

	// A completed session accepts no further mutation.
	if _, err := svc.Answer(sess.ID, "q2-2"); err == nil {
		t.Fatalf("Answer after completion did not fail")
	}
	if _, _, err := svc.Next(sess.ID); err == nil {
		t.Fatalf("Next after completion did not fail")
	}
}

func TestCompleteWithNoAnswers(t *testing.T) {
	svc := newTestSessionService(newStubSessionStore(), newTwoQuestionCatalog())
	sess, _ := svc.Start("big-five", "u1")

	score, err := svc.Complete(sess.ID)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if score.Overall != 0 || len(score.Breakdown) != 0 {
		t.Fatalf("empty session score = %+v, want overall 0 with empty breakdown", score)
	}
}
