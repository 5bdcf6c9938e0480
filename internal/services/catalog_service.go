package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/kickhr/kickhr/internal/models"
)

// CatalogStore abstracts persistence for the question catalog.
type CatalogStore interface {
	AddAssessmentType(at *models.AssessmentType)
	GetAssessmentType(id string) *models.AssessmentType
	ListAssessmentTypes() []*models.AssessmentType
	UpdateAssessmentType(at *models.AssessmentType) bool
	DeleteAssessmentType(id string) bool

	AddQuestion(q *models.Question)
	GetQuestion(id string) *models.Question
	UpdateQuestion(q *models.Question) bool
	DeleteQuestion(id string) bool
	ListQuestions(assessmentTypeID string) []*models.Question
	ReorderQuestions(assessmentTypeID string, order []string) bool

	AddAudit(e AuditEntry)
}

var validCategories = map[string]bool{
	"personality": true,
	"aptitude":    true,
	"cognitive":   true,
	"skills":      true,
}

var validKinds = map[string]bool{
	"multiple-choice": true,
	"likert":          true,
	"image-choice":    true,
}

// CatalogService manages assessment types and their question banks. It also
// serves as the QuestionCatalog collaborator of the session engine.
type CatalogService struct {
	store CatalogStore
	now   func() time.Time
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *CatalogService) CreateAssessmentType(actor string, at *models.AssessmentType) (*models.AssessmentType, error) {
	if at == nil || strings.TrimSpace(at.Name) == "" {
		return nil, NewInvalidError("name required")
	}
	if at.Category == "" {
		at.Category = "skills"
	}
	if !validCategories[at.Category] {
		return nil, NewInvalidError("unknown category: " + at.Category)
	}
	if at.ID == "" {
		at.ID = shortID(8)
	}
	if s.store.GetAssessmentType(at.ID) != nil {
		return nil, NewConflictError("assessment type id exists")
	}
	s.store.AddAssessmentType(at)
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "create_assessment_type", Target: at.ID})
	return at, nil
}

func (s *CatalogService) UpdateAssessmentType(actor string, at *models.AssessmentType) error {
	if at == nil || at.ID == "" {
		return NewInvalidError("id required")
	}
	if at.Category != "" && !validCategories[at.Category] {
		return NewInvalidError("unknown category: " + at.Category)
	}
	if !s.store.UpdateAssessmentType(at) {
		return NewNotFoundError("assessment type not found")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "update_assessment_type", Target: at.ID})
	return nil
}

func (s *CatalogService) DeleteAssessmentType(actor, id string) error {
	if !s.store.DeleteAssessmentType(id) {
		return NewNotFoundError("assessment type not found")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_assessment_type", Target: id})
	return nil
}

func (s *CatalogService) ListAssessmentTypes() []*models.AssessmentType {
	return s.store.ListAssessmentTypes()
}

// CreateQuestion validates and stores a question. Options must be present;
// empty option ids are assigned from the question id and position, matching
// the bank's "<question>-<n>" convention.
func (s *CatalogService) CreateQuestion(actor string, q *models.Question) (*models.Question, error) {
	if q == nil {
		return nil, NewInvalidError("question required")
	}
	if q.AssessmentTypeID == "" {
		return nil, NewInvalidError("assessment_type_id required")
	}
	if s.store.GetAssessmentType(q.AssessmentTypeID) == nil {
		return nil, NewNotFoundError("assessment type not found")
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, NewInvalidError("text required")
	}
	if len(q.Options) == 0 {
		return nil, NewInvalidError("at least one option required")
	}
	if q.Kind == "" {
		q.Kind = "multiple-choice"
	}
	if !validKinds[q.Kind] {
		return nil, NewInvalidError("unknown question kind: " + q.Kind)
	}
	if q.ID == "" {
		q.ID = shortID(8)
	}
	if s.store.GetQuestion(q.ID) != nil {
		return nil, NewConflictError("question id exists")
	}
	seen := map[string]bool{}
	for i := range q.Options {
		opt := &q.Options[i]
		if opt.ID == "" {
			opt.ID = fmt.Sprintf("%s-%d", q.ID, i+1)
		}
		if seen[opt.ID] {
			return nil, NewInvalidError("duplicate option id: " + opt.ID)
		}
		seen[opt.ID] = true
		if opt.Value < 0 {
			return nil, NewInvalidError("option value must not be negative")
		}
	}
	if q.Order == 0 {
		q.Order = len(s.store.ListQuestions(q.AssessmentTypeID)) + 1
	}
	s.store.AddQuestion(q)
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "create_question", Target: q.ID})
	return q, nil
}

func (s *CatalogService) UpdateQuestion(actor string, q *models.Question) error {
	if q == nil || q.ID == "" {
		return NewInvalidError("id required")
	}
	if len(q.Options) == 0 {
		return NewInvalidError("at least one option required")
	}
	if !s.store.UpdateQuestion(q) {
		return NewNotFoundError("question not found")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "update_question", Target: q.ID})
	return nil
}

func (s *CatalogService) DeleteQuestion(actor, id string) error {
	if !s.store.DeleteQuestion(id) {
		return NewNotFoundError("question not found")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "delete_question", Target: id})
	return nil
}

// ReorderQuestions rewrites the ordinal positions of a type's questions to
// match the given id order.
func (s *CatalogService) ReorderQuestions(actor, assessmentTypeID string, order []string) error {
	if s.store.GetAssessmentType(assessmentTypeID) == nil {
		return NewNotFoundError("assessment type not found")
	}
	if !s.store.ReorderQuestions(assessmentTypeID, order) {
		return NewInvalidError("order does not match question set")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "reorder_questions", Target: assessmentTypeID})
	return nil
}

// GetAssessmentType implements QuestionCatalog.
func (s *CatalogService) GetAssessmentType(id string) *models.AssessmentType {
	return s.store.GetAssessmentType(id)
}

// ListQuestions implements QuestionCatalog. The store keeps the sequence
// ordered by ordinal position.
func (s *CatalogService) ListQuestions(assessmentTypeID string) []*models.Question {
	return s.store.ListQuestions(assessmentTypeID)
}
