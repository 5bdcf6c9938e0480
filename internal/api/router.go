package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kickhr/kickhr/internal/middleware"
	"github.com/kickhr/kickhr/internal/models"
	"github.com/kickhr/kickhr/internal/services"
)

type Router struct {
	store    Store
	auth     *services.AuthService
	catalog  *services.CatalogService
	sessions *services.SessionService
	results  *services.ResultsService
}

func NewRouter(store Store) *Router {
	catalog := services.NewCatalogService(store)
	return &Router{
		store:    store,
		auth:     services.NewAuthService(store, middleware.SignToken),
		catalog:  catalog,
		sessions: services.NewSessionService(store, catalog),
		results:  services.NewResultsService(store),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister)      // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)            // POST
	mux.HandleFunc("/api/assessment-types", rt.handleTypes)      // GET, POST
	mux.HandleFunc("/api/assessment-types/", rt.handleTypeScoped)
	mux.HandleFunc("/api/questions", rt.handleQuestions)         // POST
	mux.HandleFunc("/api/questions/", rt.handleQuestionScoped)   // PUT, DELETE
	mux.HandleFunc("/api/sessions", rt.handleSessions)           // POST
	mux.HandleFunc("/api/sessions/", rt.handleSessionScoped)
	mux.HandleFunc("/api/results", rt.handleResults)             // GET
	mux.HandleFunc("/api/results/", rt.handleResultScoped)       // GET
	mux.HandleFunc("/api/analytics/summary", rt.handleSummary)   // GET
	mux.HandleFunc("/api/export", rt.handleExport)               // GET
	mux.HandleFunc("/api/companies", rt.handleCompanies)         // GET
	mux.HandleFunc("/api/projects", rt.handleProjects)           // GET
	mux.HandleFunc("/api/users", rt.handleUsers)                 // GET
	mux.HandleFunc("/api/seed", rt.handleSeed)                   // POST
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		http.Error(w, se.Message, statusFor(se.Code))
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func (rt *Router) requireRole(w http.ResponseWriter, r *http.Request, roles ...models.Role) bool {
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	for _, want := range roles {
		if role == want {
			return true
		}
	}
	http.Error(w, "forbidden", http.StatusForbidden)
	return false
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "user_id": res.UserID, "role": res.Role, "name": res.Name})
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "user_id": res.UserID, "role": res.Role, "name": res.Name})
}

// GET/POST /api/assessment-types
func (rt *Router) handleTypes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"assessment_types": rt.catalog.ListAssessmentTypes()})
	case http.MethodPost:
		if !rt.requireRole(w, r, models.RoleAdmin) {
			return
		}
		var at models.AssessmentType
		if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		actor, _ := middleware.UserIDFromContext(r.Context())
		created, err := rt.catalog.CreateAssessmentType(actor, &at)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, created)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// /api/assessment-types/{id}            PUT, DELETE (admin)
// /api/assessment-types/{id}/questions  GET
// /api/assessment-types/{id}/reorder    POST (admin)
func (rt *Router) handleTypeScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/assessment-types/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	actor, _ := middleware.UserIDFromContext(r.Context())

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodPut:
			if !rt.requireRole(w, r, models.RoleAdmin) {
				return
			}
			var at models.AssessmentType
			if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			at.ID = id
			if err := rt.catalog.UpdateAssessmentType(actor, &at); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, at)
		case http.MethodDelete:
			if !rt.requireRole(w, r, models.RoleAdmin) {
				return
			}
			if err := rt.catalog.DeleteAssessmentType(actor, id); err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, map[string]any{"ok": true})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "questions":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if rt.catalog.GetAssessmentType(id) == nil {
			http.Error(w, "assessment type not found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"assessment_type_id": id, "questions": rt.catalog.ListQuestions(id)})
	case "reorder":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !rt.requireRole(w, r, models.RoleAdmin) {
			return
		}
		var req struct {
			Order []string `json:"order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := rt.catalog.ReorderQuestions(actor, id, req.Order); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	default:
		http.NotFound(w, r)
	}
}

// POST /api/questions
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !rt.requireRole(w, r, models.RoleAdmin) {
		return
	}
	var q models.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	actor, _ := middleware.UserIDFromContext(r.Context())
	created, err := rt.catalog.CreateQuestion(actor, &q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, created)
}

// PUT/DELETE /api/questions/{id}
func (rt *Router) handleQuestionScoped(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/questions/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if !rt.requireRole(w, r, models.RoleAdmin) {
		return
	}
	actor, _ := middleware.UserIDFromContext(r.Context())
	switch r.Method {
	case http.MethodPut:
		var q models.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q.ID = id
		if err := rt.catalog.UpdateQuestion(actor, &q); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, q)
	case http.MethodDelete:
		if err := rt.catalog.DeleteQuestion(actor, id); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/sessions — start an attempt. The user id comes from the auth
// token when present, otherwise from the body (kiosk flows).
func (rt *Router) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		AssessmentTypeID string `json:"assessment_type_id"`
		UserID           string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID := req.UserID
	if uid, ok := middleware.UserIDFromContext(r.Context()); ok {
		userID = uid
	}
	sess, err := rt.sessions.Start(req.AssessmentTypeID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	question, _ := rt.sessions.CurrentQuestion(sess.ID)
	writeJSON(w, map[string]any{
		"session":  sess,
		"question": question,
		"progress": rt.sessions.Progress(sess.ID),
	})
}

// /api/sessions/{id}           GET state
// /api/sessions/{id}/answer    POST {option_id}
// /api/sessions/{id}/next      POST
// /api/sessions/{id}/previous  POST
// /api/sessions/{id}/complete  POST
// /api/sessions/{id}/progress  GET
func (rt *Router) handleSessionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	sess := rt.store.GetSession(id)
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if !rt.canAccessSession(r, sess) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		out := map[string]any{"session": sess, "progress": rt.sessions.Progress(id)}
		if sess.Status == models.StatusInProgress {
			if q, err := rt.sessions.CurrentQuestion(id); err == nil {
				out["question"] = q
			}
		}
		writeJSON(w, out)
		return
	}

	switch parts[1] {
	case "answer":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			OptionID string `json:"option_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		updated, err := rt.sessions.Answer(id, req.OptionID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"session": updated, "progress": rt.sessions.Progress(id)})
	case "next", "previous":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var (
			updated *models.Session
			moved   bool
			err     error
		)
		if parts[1] == "next" {
			updated, moved, err = rt.sessions.Next(id)
		} else {
			updated, moved, err = rt.sessions.Previous(id)
		}
		if err != nil {
			writeServiceError(w, err)
			return
		}
		question, _ := rt.sessions.CurrentQuestion(id)
		writeJSON(w, map[string]any{
			"session":  updated,
			"moved":    moved,
			"question": question,
			"progress": rt.sessions.Progress(id),
		})
	case "complete":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		score, err := rt.sessions.Complete(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"session_id": id, "score": score})
	case "progress":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, rt.sessions.Progress(id))
	default:
		http.NotFound(w, r)
	}
}

// canAccessSession gates session operations. Assessors and admins see
// everything; authenticated candidates only their own sessions. Requests
// without a token rely on the session id being unguessable.
func (rt *Router) canAccessSession(r *http.Request, sess *models.Session) bool {
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		return true
	}
	if role == models.RoleAssessor || role == models.RoleAdmin {
		return true
	}
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid == sess.UserID
}

// GET /api/results?type=... | ?user=...
func (rt *Router) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	role, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if role == models.RoleUser {
		// Candidates only ever see their own completed results.
		uid, _ := middleware.UserIDFromContext(r.Context())
		writeJSON(w, map[string]any{"results": rt.results.UserResults(uid)})
		return
	}
	if userID := r.URL.Query().Get("user"); userID != "" {
		writeJSON(w, map[string]any{"results": rt.results.UserResults(userID)})
		return
	}
	typeID := r.URL.Query().Get("type")
	if typeID == "" {
		http.Error(w, "type required", http.StatusBadRequest)
		return
	}
	results, err := rt.results.ListResults(typeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"results": results})
}

// GET /api/results/{sessionID}
func (rt *Router) handleResultScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/results/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	sess := rt.store.GetSession(id)
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if !rt.canAccessSession(r, sess) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	detail, err := rt.results.Result(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, detail)
}

// GET /api/analytics/summary?type=...
func (rt *Router) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !rt.requireRole(w, r, models.RoleAssessor, models.RoleAdmin) {
		return
	}
	typeID := r.URL.Query().Get("type")
	if typeID == "" {
		http.Error(w, "type required", http.StatusBadRequest)
		return
	}
	summary, err := rt.results.Summary(typeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, summary)
}

// GET /api/export?type=...&format=long|wide
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !rt.requireRole(w, r, models.RoleAssessor, models.RoleAdmin) {
		return
	}
	typeID := r.URL.Query().Get("type")
	if typeID == "" {
		http.Error(w, "type required", http.StatusBadRequest)
		return
	}
	if rt.catalog.GetAssessmentType(typeID) == nil {
		http.Error(w, "assessment type not found", http.StatusNotFound)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "long"
	}
	sessions := rt.store.ListCompletedSessions(typeID)

	var (
		b    []byte
		name string
		err  error
	)
	switch format {
	case "long":
		b, err = services.ExportLongCSV(services.LongRowsFor(sessions))
		name = "results_long.csv"
	case "wide":
		b, err = services.ExportWideCSV(sessions)
		name = "results_wide.csv"
	default:
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	_, _ = w.Write(b)
}

// GET /api/companies
func (rt *Router) handleCompanies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !rt.requireRole(w, r, models.RoleAssessor, models.RoleAdmin) {
		return
	}
	writeJSON(w, map[string]any{"companies": rt.store.ListCompanies()})
}

// GET /api/projects?company=...
func (rt *Router) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !rt.requireRole(w, r, models.RoleAssessor, models.RoleAdmin) {
		return
	}
	writeJSON(w, map[string]any{"projects": rt.store.ListProjects(r.URL.Query().Get("company"))})
}

// GET /api/users
func (rt *Router) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !rt.requireRole(w, r, models.RoleAdmin) {
		return
	}
	writeJSON(w, map[string]any{"users": rt.store.ListUsers()})
}

// POST /api/seed — load the demo question banks and accounts.
func (rt *Router) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := Seed(rt.store); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "assessment_types": rt.catalog.ListAssessmentTypes()})
}
