package api

import (
	"github.com/kickhr/kickhr/internal/models"
	"github.com/kickhr/kickhr/internal/services"
)

// Store is the persistence surface the router wires into the services. The
// memory store and the SQLite store both implement it.
type Store interface {
	services.CatalogStore
	services.SessionStore
	services.ResultsStore
	services.AuthStore

	ListUsers() []*models.User
	AddCompany(c *models.Company)
	ListCompanies() []*models.Company
	AddProject(p *models.Project)
	ListProjects(companyID string) []*models.Project
	ListAudit() []services.AuditEntry
}
