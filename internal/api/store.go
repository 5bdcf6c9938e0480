package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/kickhr/kickhr/internal/models"
	"github.com/kickhr/kickhr/internal/services"
)

// memoryStore is the default in-process store. All reads hand out copies so
// callers mutate nothing until they write back.
type memoryStore struct {
	mu              sync.RWMutex
	assessmentTypes map[string]*models.AssessmentType
	questions       map[string]*models.Question
	questionsByType map[string][]*models.Question
	sessions        map[string]*models.Session
	usersByID       map[string]*models.User
	usersByEmail    map[string]*models.User
	companies       map[string]*models.Company
	projects        map[string]*models.Project
	audit           []services.AuditEntry
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		assessmentTypes: map[string]*models.AssessmentType{},
		questions:       map[string]*models.Question{},
		questionsByType: map[string][]*models.Question{},
		sessions:        map[string]*models.Session{},
		usersByID:       map[string]*models.User{},
		usersByEmail:    map[string]*models.User{},
		companies:       map[string]*models.Company{},
		projects:        map[string]*models.Project{},
		audit:           []services.AuditEntry{},
	}
}

func (s *memoryStore) AddAssessmentType(at *models.AssessmentType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *at
	s.assessmentTypes[at.ID] = &cp
}

func (s *memoryStore) GetAssessmentType(id string) *models.AssessmentType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.assessmentTypes[id]
	if !ok {
		return nil
	}
	cp := *at
	return &cp
}

func (s *memoryStore) ListAssessmentTypes() []*models.AssessmentType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.AssessmentType, 0, len(s.assessmentTypes))
	for _, at := range s.assessmentTypes {
		cp := *at
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) UpdateAssessmentType(at *models.AssessmentType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assessmentTypes[at.ID]; !ok {
		return false
	}
	cp := *at
	s.assessmentTypes[at.ID] = &cp
	return true
}

func (s *memoryStore) DeleteAssessmentType(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assessmentTypes[id]; !ok {
		return false
	}
	delete(s.assessmentTypes, id)
	for _, q := range s.questionsByType[id] {
		delete(s.questions, q.ID)
	}
	delete(s.questionsByType, id)
	return true
}

func (s *memoryStore) AddQuestion(q *models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := copyQuestion(q)
	s.questions[q.ID] = cp
	s.questionsByType[q.AssessmentTypeID] = append(s.questionsByType[q.AssessmentTypeID], cp)
	sortQuestions(s.questionsByType[q.AssessmentTypeID])
}

func (s *memoryStore) GetQuestion(id string) *models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil
	}
	return copyQuestion(q)
}

func (s *memoryStore) UpdateQuestion(q *models.Question) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.questions[q.ID]
	if !ok {
		return false
	}
	cp := copyQuestion(q)
	cp.AssessmentTypeID = old.AssessmentTypeID
	s.questions[q.ID] = cp
	byType := s.questionsByType[old.AssessmentTypeID]
	for i := range byType {
		if byType[i].ID == q.ID {
			byType[i] = cp
			break
		}
	}
	sortQuestions(byType)
	return true
}

func (s *memoryStore) DeleteQuestion(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return false
	}
	delete(s.questions, id)
	byType := s.questionsByType[q.AssessmentTypeID]
	next := make([]*models.Question, 0, len(byType))
	for _, it := range byType {
		if it.ID != id {
			next = append(next, it)
		}
	}
	s.questionsByType[q.AssessmentTypeID] = next
	return true
}

func (s *memoryStore) ListQuestions(assessmentTypeID string) []*models.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.questionsByType[assessmentTypeID]
	out := make([]*models.Question, 0, len(src))
	for _, q := range src {
		out = append(out, copyQuestion(q))
	}
	return out
}

func (s *memoryStore) ReorderQuestions(assessmentTypeID string, order []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	byType := s.questionsByType[assessmentTypeID]
	if len(order) != len(byType) {
		return false
	}
	index := make(map[string]*models.Question, len(byType))
	for _, q := range byType {
		index[q.ID] = q
	}
	next := make([]*models.Question, 0, len(order))
	for pos, id := range order {
		q, ok := index[id]
		if !ok {
			return false
		}
		delete(index, id)
		q.Order = pos + 1
		next = append(next, q)
	}
	s.questionsByType[assessmentTypeID] = next
	return true
}

func (s *memoryStore) GetSession(id string) *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	return copySession(sess)
}

func (s *memoryStore) PutSession(sess *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = copySession(sess)
}

func (s *memoryStore) DeleteActiveSessionsByUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.Status == models.StatusInProgress {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *memoryStore) ListCompletedSessions(assessmentTypeID string) []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Session{}
	for _, sess := range s.sessions {
		if sess.AssessmentTypeID == assessmentTypeID && sess.Status == models.StatusCompleted {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) ListSessionsByUser(userID string) []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Session{}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, copySession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) AddUser(u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.usersByID[u.ID] = &cp
	s.usersByEmail[strings.ToLower(u.Email)] = &cp
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *memoryStore) GetUser(id string) *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usersByID[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (s *memoryStore) ListUsers() []*models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.usersByID))
	for _, u := range s.usersByID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) AddCompany(c *models.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.companies[c.ID] = &cp
}

func (s *memoryStore) ListCompanies() []*models.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Company, 0, len(s.companies))
	for _, c := range s.companies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) AddProject(p *models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.projects[p.ID] = &cp
}

func (s *memoryStore) ListProjects(companyID string) []*models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.Project{}
	for _, p := range s.projects {
		if companyID == "" || p.CompanyID == companyID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *memoryStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

func copyQuestion(q *models.Question) *models.Question {
	cp := *q
	cp.Options = append([]models.Option(nil), q.Options...)
	return &cp
}

func copySession(sess *models.Session) *models.Session {
	cp := *sess
	cp.Answers = append([]models.Answer(nil), sess.Answers...)
	if sess.CompletedAt != nil {
		t := *sess.CompletedAt
		cp.CompletedAt = &t
	}
	if sess.Score != nil {
		sc := *sess.Score
		sc.Breakdown = append([]models.TraitScore(nil), sess.Score.Breakdown...)
		cp.Score = &sc
	}
	return &cp
}

func sortQuestions(qs []*models.Question) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].Order != qs[j].Order {
			return qs[i].Order < qs[j].Order
		}
		return qs[i].ID < qs[j].ID
	})
}
