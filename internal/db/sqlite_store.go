package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kickhr/kickhr/internal/api"
	"github.com/kickhr/kickhr/internal/models"
	"github.com/kickhr/kickhr/internal/services"
)

// SQLiteStore persists the catalog, sessions, and accounts in SQLite.
// Option lists, answer sets, and scores are stored as JSON columns.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// NewStore exposes the SQLite store behind the router's Store interface.
func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func toNullString(v string) sql.NullString {
	if strings.TrimSpace(v) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func (s *SQLiteStore) AddAssessmentType(at *models.AssessmentType) {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO assessment_types (id, name, description, category, duration, question_count, icon)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		at.ID, at.Name, toNullString(at.Description), at.Category, at.Duration, at.QuestionCount, toNullString(at.Icon),
	)
	s.logErr("add assessment type", err)
}

func (s *SQLiteStore) GetAssessmentType(id string) *models.AssessmentType {
	row := s.db.QueryRow(
		`SELECT id, name, description, category, duration, question_count, icon
		 FROM assessment_types WHERE id = ?`, id)
	at, err := scanAssessmentType(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("get assessment type", err)
		}
		return nil
	}
	return at
}

func (s *SQLiteStore) ListAssessmentTypes() []*models.AssessmentType {
	rows, err := s.db.Query(
		`SELECT id, name, description, category, duration, question_count, icon
		 FROM assessment_types ORDER BY id`)
	if err != nil {
		s.logErr("list assessment types", err)
		return nil
	}
	defer rows.Close()
	out := []*models.AssessmentType{}
	for rows.Next() {
		at, err := scanAssessmentType(rows)
		if err != nil {
			s.logErr("scan assessment type", err)
			continue
		}
		out = append(out, at)
	}
	s.logErr("list assessment types", rows.Err())
	return out
}

func (s *SQLiteStore) UpdateAssessmentType(at *models.AssessmentType) bool {
	res, err := s.db.Exec(
		`UPDATE assessment_types SET name = ?, description = ?, category = ?, duration = ?, question_count = ?, icon = ?
		 WHERE id = ?`,
		at.Name, toNullString(at.Description), at.Category, at.Duration, at.QuestionCount, toNullString(at.Icon), at.ID,
	)
	if err != nil {
		s.logErr("update assessment type", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteAssessmentType(id string) bool {
	res, err := s.db.Exec(`DELETE FROM assessment_types WHERE id = ?`, id)
	if err != nil {
		s.logErr("delete assessment type", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessmentType(r rowScanner) (*models.AssessmentType, error) {
	var at models.AssessmentType
	var description, icon sql.NullString
	if err := r.Scan(&at.ID, &at.Name, &description, &at.Category, &at.Duration, &at.QuestionCount, &icon); err != nil {
		return nil, err
	}
	at.Description = fromNullString(description)
	at.Icon = fromNullString(icon)
	return &at, nil
}

func (s *SQLiteStore) AddQuestion(q *models.Question) {
	options, err := encodeJSON(q.Options)
	if err != nil {
		s.logErr("encode question options", err)
		return
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO questions (id, assessment_type_id, kind, text, image_url, ord, options)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.AssessmentTypeID, q.Kind, q.Text, toNullString(q.ImageURL), q.Order, options,
	)
	s.logErr("add question", err)
}

func (s *SQLiteStore) GetQuestion(id string) *models.Question {
	row := s.db.QueryRow(
		`SELECT id, assessment_type_id, kind, text, image_url, ord, options
		 FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("get question", err)
		}
		return nil
	}
	return q
}

func (s *SQLiteStore) UpdateQuestion(q *models.Question) bool {
	options, err := encodeJSON(q.Options)
	if err != nil {
		s.logErr("encode question options", err)
		return false
	}
	res, err := s.db.Exec(
		`UPDATE questions SET kind = ?, text = ?, image_url = ?, ord = ?, options = ? WHERE id = ?`,
		q.Kind, q.Text, toNullString(q.ImageURL), q.Order, options, q.ID,
	)
	if err != nil {
		s.logErr("update question", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) DeleteQuestion(id string) bool {
	res, err := s.db.Exec(`DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		s.logErr("delete question", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) ListQuestions(assessmentTypeID string) []*models.Question {
	rows, err := s.db.Query(
		`SELECT id, assessment_type_id, kind, text, image_url, ord, options
		 FROM questions WHERE assessment_type_id = ? ORDER BY ord, id`, assessmentTypeID)
	if err != nil {
		s.logErr("list questions", err)
		return nil
	}
	defer rows.Close()
	out := []*models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			s.logErr("scan question", err)
			continue
		}
		out = append(out, q)
	}
	s.logErr("list questions", rows.Err())
	return out
}

func (s *SQLiteStore) ReorderQuestions(assessmentTypeID string, order []string) bool {
	existing := s.ListQuestions(assessmentTypeID)
	if len(order) != len(existing) {
		return false
	}
	ids := make(map[string]bool, len(existing))
	for _, q := range existing {
		ids[q.ID] = true
	}
	for _, id := range order {
		if !ids[id] {
			return false
		}
		delete(ids, id)
	}
	tx, err := s.db.Begin()
	if err != nil {
		s.logErr("reorder questions", err)
		return false
	}
	for pos, id := range order {
		if _, err := tx.Exec(`UPDATE questions SET ord = ? WHERE id = ?`, pos+1, id); err != nil {
			s.logErr("reorder questions", err)
			_ = tx.Rollback()
			return false
		}
	}
	if err := tx.Commit(); err != nil {
		s.logErr("reorder questions", err)
		return false
	}
	return true
}

func scanQuestion(r rowScanner) (*models.Question, error) {
	var q models.Question
	var imageURL sql.NullString
	var options string
	if err := r.Scan(&q.ID, &q.AssessmentTypeID, &q.Kind, &q.Text, &imageURL, &q.Order, &options); err != nil {
		return nil, err
	}
	q.ImageURL = fromNullString(imageURL)
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return nil, fmt.Errorf("decode question options: %w", err)
	}
	return &q, nil
}

func (s *SQLiteStore) GetSession(id string) *models.Session {
	row := s.db.QueryRow(
		`SELECT id, user_id, assessment_type_id, status, started_at, completed_at, current_question, answers, score
		 FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("get session", err)
		}
		return nil
	}
	return sess
}

func (s *SQLiteStore) PutSession(sess *models.Session) {
	answers, err := encodeJSON(sess.Answers)
	if err != nil {
		s.logErr("encode session answers", err)
		return
	}
	var score sql.NullString
	if sess.Score != nil {
		enc, err := encodeJSON(sess.Score)
		if err != nil {
			s.logErr("encode session score", err)
			return
		}
		score = sql.NullString{String: enc, Valid: true}
	}
	var completedAt sql.NullString
	if sess.CompletedAt != nil {
		completedAt = sql.NullString{String: formatTime(*sess.CompletedAt), Valid: true}
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO sessions (id, user_id, assessment_type_id, status, started_at, completed_at, current_question, answers, score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.AssessmentTypeID, string(sess.Status), formatTime(sess.StartedAt), completedAt, sess.Current, answers, score,
	)
	s.logErr("put session", err)
}

func (s *SQLiteStore) DeleteActiveSessionsByUser(userID string) int {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ? AND status = ?`, userID, string(models.StatusInProgress))
	if err != nil {
		s.logErr("delete active sessions", err)
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

func (s *SQLiteStore) ListCompletedSessions(assessmentTypeID string) []*models.Session {
	return s.querySessions(
		`SELECT id, user_id, assessment_type_id, status, started_at, completed_at, current_question, answers, score
		 FROM sessions WHERE assessment_type_id = ? AND status = ? ORDER BY id`,
		assessmentTypeID, string(models.StatusCompleted))
}

func (s *SQLiteStore) ListSessionsByUser(userID string) []*models.Session {
	return s.querySessions(
		`SELECT id, user_id, assessment_type_id, status, started_at, completed_at, current_question, answers, score
		 FROM sessions WHERE user_id = ? ORDER BY id`, userID)
}

func (s *SQLiteStore) querySessions(query string, args ...any) []*models.Session {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		s.logErr("query sessions", err)
		return nil
	}
	defer rows.Close()
	out := []*models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			s.logErr("scan session", err)
			continue
		}
		out = append(out, sess)
	}
	s.logErr("query sessions", rows.Err())
	return out
}

func scanSession(r rowScanner) (*models.Session, error) {
	var sess models.Session
	var status, startedAt, answers string
	var completedAt, score sql.NullString
	if err := r.Scan(&sess.ID, &sess.UserID, &sess.AssessmentTypeID, &status, &startedAt, &completedAt, &sess.Current, &answers, &score); err != nil {
		return nil, err
	}
	sess.Status = models.SessionStatus(status)
	sess.StartedAt = parseTime(startedAt)
	sess.CompletedAt = parseNullTime(completedAt)
	if err := json.Unmarshal([]byte(answers), &sess.Answers); err != nil {
		return nil, fmt.Errorf("decode session answers: %w", err)
	}
	if score.Valid && score.String != "" {
		var sc models.Score
		if err := json.Unmarshal([]byte(score.String), &sc); err != nil {
			return nil, fmt.Errorf("decode session score: %w", err)
		}
		sess.Score = &sc
	}
	return &sess, nil
}

func (s *SQLiteStore) AddUser(u *models.User) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO users (id, email, name, role, pass_hash, company_id, project_id, position, department, phone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, toNullString(u.Name), string(u.Role), u.PassHash,
		toNullString(u.CompanyID), toNullString(u.ProjectID), toNullString(u.Position),
		toNullString(u.Department), toNullString(u.Phone), formatTime(u.CreatedAt),
	)
	return err
}

func (s *SQLiteStore) FindUserByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow(userSelect+` WHERE email = ? COLLATE NOCASE`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (s *SQLiteStore) GetUser(id string) *models.User {
	row := s.db.QueryRow(userSelect+` WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logErr("get user", err)
		}
		return nil
	}
	return u
}

func (s *SQLiteStore) ListUsers() []*models.User {
	rows, err := s.db.Query(userSelect + ` ORDER BY id`)
	if err != nil {
		s.logErr("list users", err)
		return nil
	}
	defer rows.Close()
	out := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			s.logErr("scan user", err)
			continue
		}
		out = append(out, u)
	}
	s.logErr("list users", rows.Err())
	return out
}

const userSelect = `SELECT id, email, name, role, pass_hash, company_id, project_id, position, department, phone, created_at FROM users`

func scanUser(r rowScanner) (*models.User, error) {
	var u models.User
	var role, createdAt string
	var name, companyID, projectID, position, department, phone sql.NullString
	if err := r.Scan(&u.ID, &u.Email, &name, &role, &u.PassHash, &companyID, &projectID, &position, &department, &phone, &createdAt); err != nil {
		return nil, err
	}
	u.Name = fromNullString(name)
	u.Role = models.Role(role)
	u.CompanyID = fromNullString(companyID)
	u.ProjectID = fromNullString(projectID)
	u.Position = fromNullString(position)
	u.Department = fromNullString(department)
	u.Phone = fromNullString(phone)
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *SQLiteStore) AddCompany(c *models.Company) {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO companies (id, name, industry) VALUES (?, ?, ?)`,
		c.ID, c.Name, toNullString(c.Industry),
	)
	s.logErr("add company", err)
}

func (s *SQLiteStore) ListCompanies() []*models.Company {
	rows, err := s.db.Query(`SELECT id, name, industry FROM companies ORDER BY id`)
	if err != nil {
		s.logErr("list companies", err)
		return nil
	}
	defer rows.Close()
	out := []*models.Company{}
	for rows.Next() {
		var c models.Company
		var industry sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &industry); err != nil {
			s.logErr("scan company", err)
			continue
		}
		c.Industry = fromNullString(industry)
		out = append(out, &c)
	}
	s.logErr("list companies", rows.Err())
	return out
}

func (s *SQLiteStore) AddProject(p *models.Project) {
	var endDate sql.NullString
	if p.EndDate != nil {
		endDate = sql.NullString{String: formatTime(*p.EndDate), Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO projects (id, name, company_id, description, start_date, end_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.CompanyID, toNullString(p.Description), formatTime(p.StartDate), endDate, toNullString(p.Status),
	)
	s.logErr("add project", err)
}

func (s *SQLiteStore) ListProjects(companyID string) []*models.Project {
	query := `SELECT id, name, company_id, description, start_date, end_date, status FROM projects`
	args := []any{}
	if companyID != "" {
		query += ` WHERE company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY id`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		s.logErr("list projects", err)
		return nil
	}
	defer rows.Close()
	out := []*models.Project{}
	for rows.Next() {
		var p models.Project
		var description, status sql.NullString
		var startDate string
		var endDate sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.CompanyID, &description, &startDate, &endDate, &status); err != nil {
			s.logErr("scan project", err)
			continue
		}
		p.Description = fromNullString(description)
		p.StartDate = parseTime(startDate)
		p.EndDate = parseNullTime(endDate)
		p.Status = fromNullString(status)
		out = append(out, &p)
	}
	s.logErr("list projects", rows.Err())
	return out
}

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.db.Exec(
		`INSERT INTO audit_log (time, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		formatTime(e.Time), toNullString(e.Actor), e.Action, toNullString(e.Target), toNullString(e.Note),
	)
	s.logErr("add audit", err)
}

func (s *SQLiteStore) ListAudit() []services.AuditEntry {
	rows, err := s.db.Query(`SELECT time, actor, action, target, note FROM audit_log ORDER BY time`)
	if err != nil {
		s.logErr("list audit", err)
		return nil
	}
	defer rows.Close()
	out := []services.AuditEntry{}
	for rows.Next() {
		var e services.AuditEntry
		var timeStr string
		var actor, target, note sql.NullString
		if err := rows.Scan(&timeStr, &actor, &e.Action, &target, &note); err != nil {
			s.logErr("scan audit", err)
			continue
		}
		e.Time = parseTime(timeStr)
		e.Actor = fromNullString(actor)
		e.Target = fromNullString(target)
		e.Note = fromNullString(note)
		out = append(out, e)
	}
	s.logErr("list audit", rows.Err())
	return out
}
