package services

import (
	"math"
	"strings"
	"time"

	"github.com/kickhr/kickhr/internal/models"
)

// SessionStore abstracts persistence operations required by SessionService.
type SessionStore interface {
	GetSession(id string) *models.Session
	PutSession(s *models.Session)
	DeleteActiveSessionsByUser(userID string) int
}

// QuestionCatalog resolves assessment types to their ordered question sets.
type QuestionCatalog interface {
	GetAssessmentType(id string) *models.AssessmentType
	ListQuestions(assessmentTypeID string) []*models.Question
}

// Progress reports how far a session has advanced through its question set.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// SessionService owns the assessment attempt lifecycle: starting a session,
// capturing answers, navigation, progress, and final scoring. Sessions are
// addressed by id; the service keeps no ambient "current session" state.
type SessionService struct {
	store   SessionStore
	catalog QuestionCatalog
	now     func() time.Time
	idGen   func() string
}

func NewSessionService(store SessionStore, catalog QuestionCatalog) *SessionService {
	return &SessionService{
		store:   store,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   func() string { return "s" + shortID(11) },
	}
}

// Start creates a fresh in-progress session over the ordered question set
// of the given assessment type. Any in-progress session the user already
// had is discarded; a retake is always a new session, never a mutation of
// an old one.
func (s *SessionService) Start(assessmentTypeID, userID string) (*models.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewInvalidError("user id required")
	}
	if at := s.catalog.GetAssessmentType(assessmentTypeID); at == nil {
		return nil, NewNotFoundError("assessment type not found")
	}
	if len(s.catalog.ListQuestions(assessmentTypeID)) == 0 {
		return nil, NewInvalidError("assessment type has no questions")
	}
	s.store.DeleteActiveSessionsByUser(userID)
	sess := &models.Session{
		ID:               s.idGen(),
		UserID:           userID,
		AssessmentTypeID: assessmentTypeID,
		Status:           models.StatusInProgress,
		StartedAt:        s.now(),
		Answers:          []models.Answer{},
	}
	s.store.PutSession(sess)
	return sess, nil
}

// Answer records the chosen option for the session's current question.
// Re-answering a question replaces the prior answer; a session never holds
// two answers for the same question id. The option must belong to the
// current question.
func (s *SessionService) Answer(sessionID, optionID string) (*models.Session, error) {
	sess, err := s.activeSession(sessionID)
	if err != nil {
		return nil, err
	}
	questions := s.catalog.ListQuestions(sess.AssessmentTypeID)
	if sess.Current < 0 || sess.Current >= len(questions) {
		return nil, NewInvalidError("no current question")
	}
	q := questions[sess.Current]
	if findOption(q, optionID) == nil {
		return nil, NewInvalidError("option does not belong to current question")
	}
	ans := models.Answer{QuestionID: q.ID, OptionID: optionID, AnsweredAt: s.now()}
	replaced := false
	for i := range sess.Answers {
		if sess.Answers[i].QuestionID == q.ID {
			sess.Answers[i] = ans
			replaced = true
			break
		}
	}
	if !replaced {
		sess.Answers = append(sess.Answers, ans)
	}
	s.store.PutSession(sess)
	return sess, nil
}

// Next advances the session to the following question. At the last question
// it reports moved=false and leaves the index untouched.
func (s *SessionService) Next(sessionID string) (*models.Session, bool, error) {
	sess, err := s.activeSession(sessionID)
	if err != nil {
		return nil, false, err
	}
	questions := s.catalog.ListQuestions(sess.AssessmentTypeID)
	if sess.Current >= len(questions)-1 {
		return sess, false, nil
	}
	sess.Current++
	s.store.PutSession(sess)
	return sess, true, nil
}

// Previous steps back one question. At the first question it reports
// moved=false and leaves the index untouched.
func (s *SessionService) Previous(sessionID string) (*models.Session, bool, error) {
	sess, err := s.activeSession(sessionID)
	if err != nil {
		return nil, false, err
	}
	if sess.Current <= 0 {
		return sess, false, nil
	}
	sess.Current--
	s.store.PutSession(sess)
	return sess, true, nil
}

// Complete scores the collected answers, marks the session completed, and
// attaches the score. Completing an already-completed session returns the
// attached score unchanged. Unanswered questions are simply absent from the
// breakdown; a session with no scorable answers completes with overall 0.
func (s *SessionService) Complete(sessionID string) (*models.Score, error) {
	sess := s.store.GetSession(sessionID)
	if sess == nil {
		return nil, NewNotFoundError("session not found")
	}
	if sess.Status == models.StatusCompleted {
		if sess.Score == nil {
			return nil, NewConflictError("session already completed")
		}
		return sess.Score, nil
	}
	questions := s.catalog.ListQuestions(sess.AssessmentTypeID)
	score := ComputeScore(sess.Answers, questions)
	completedAt := s.now()
	sess.Status = models.StatusCompleted
	sess.CompletedAt = &completedAt
	sess.Score = &score
	s.store.PutSession(sess)
	return sess.Score, nil
}

// Progress reports the 1-based position within the question set. An unknown
// session, or a session over an empty question set, yields the zero triple.
func (s *SessionService) Progress(sessionID string) Progress {
	sess := s.store.GetSession(sessionID)
	if sess == nil {
		return Progress{}
	}
	total := len(s.catalog.ListQuestions(sess.AssessmentTypeID))
	if total == 0 {
		return Progress{}
	}
	current := sess.Current + 1
	return Progress{
		Current:    current,
		Total:      total,
		Percentage: int(math.Round(float64(current) / float64(total) * 100)),
	}
}

// CurrentQuestion resolves the question at the session's current index for
// the presentation layer.
func (s *SessionService) CurrentQuestion(sessionID string) (*models.Question, error) {
	sess, err := s.activeSession(sessionID)
	if err != nil {
		return nil, err
	}
	questions := s.catalog.ListQuestions(sess.AssessmentTypeID)
	if sess.Current < 0 || sess.Current >= len(questions) {
		return nil, NewInvalidError("no current question")
	}
	return questions[sess.Current], nil
}

func (s *SessionService) activeSession(id string) (*models.Session, error) {
	sess := s.store.GetSession(id)
	if sess == nil {
		return nil, NewNotFoundError("session not found")
	}
	if sess.Status == models.StatusCompleted {
		return nil, NewInvalidError("session already completed")
	}
	return sess, nil
}
