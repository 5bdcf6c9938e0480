package models

import "time"

// Role identifies what a user can do on the platform.
type Role string

const (
	RoleUser     Role = "user"
	RoleAssessor Role = "assessor"
	RoleAdmin    Role = "admin"
)

// Company is a client organization whose candidates take assessments.
type Company struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Industry string `json:"industry,omitempty"`
}

// Project groups candidates inside a company (e.g., a hiring round).
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CompanyID   string     `json:"company_id"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      string     `json:"status"` // active|completed|upcoming
}

// User is a platform account: candidate, assessor, or administrator.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	PassHash   []byte    `json:"-"`
	CompanyID  string    `json:"company_id,omitempty"`
	ProjectID  string    `json:"project_id,omitempty"`
	Position   string    `json:"position,omitempty"`
	Department string    `json:"department,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AssessmentType is a named category of test with its own question set.
type AssessmentType struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category"`           // personality|aptitude|cognitive|skills
	Duration      int    `json:"duration,omitempty"` // minutes
	QuestionCount int    `json:"question_count,omitempty"`
	Icon          string `json:"icon,omitempty"`
}

// Option is one selectable answer for a question. Value is the scorable
// weight; an empty Trait puts the value in the "General" group at scoring.
type Option struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
	Value    int    `json:"value"`
	Trait    string `json:"trait,omitempty"`
}

// Question is a catalog entry belonging to one assessment type. Kind
// affects rendering only, never scoring.
type Question struct {
	ID               string   `json:"id"`
	AssessmentTypeID string   `json:"assessment_type_id"`
	Kind             string   `json:"kind"` // multiple-choice|likert|image-choice
	Text             string   `json:"text"`
	ImageURL         string   `json:"image_url,omitempty"`
	Order            int      `json:"order"`
	Options          []Option `json:"options"`
}

// Answer records the chosen option for one question within a session.
// A session holds at most one answer per question id.
type Answer struct {
	QuestionID string    `json:"question_id"`
	OptionID   string    `json:"option_id"`
	AnsweredAt time.Time `json:"answered_at"`
}

// SessionStatus tracks the session lifecycle. There is no transition back
// from completed.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in-progress"
	StatusCompleted  SessionStatus = "completed"
)

// TraitScore is one breakdown entry of a computed score. Trait carries the
// display-cased label.
type TraitScore struct {
	Trait      string `json:"trait"`
	Score      int    `json:"score"`
	Percentile int    `json:"percentile"`
}

// Score is the result of scoring a completed session.
type Score struct {
	Overall   int          `json:"overall"`
	Breakdown []TraitScore `json:"breakdown"`
}

// Session is one candidate's attempt at one assessment type.
type Session struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	AssessmentTypeID string        `json:"assessment_type_id"`
	Status           SessionStatus `json:"status"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	Current          int           `json:"current"` // zero-based question index
	Answers          []Answer      `json:"answers"`
	Score            *Score        `json:"score,omitempty"`
}
