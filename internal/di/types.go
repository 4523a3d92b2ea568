// Package di wires the navigator's databases, clients and services.
package di

import (
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clients/newton"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clients/yahoo"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/database"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/forecast"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/news"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/portfolio"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/profile"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/universe"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/scheduler"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/web"
)

// Container holds every long-lived dependency. It is built by Wire and
// handed to the server.
type Container struct {
	// Databases
	SessionsDB   *database.DB
	ClientDataDB *database.DB

	// Storage
	ClientDataRepo *clientdata.Repository
	SessionStore   *session.Store

	// External collaborators
	YahooClient  *yahoo.Client
	NewtonClient *newton.Client

	// Services
	ProfileService   *profile.Service
	UniverseService  *universe.Service
	SearchIndex      *universe.SearchIndex
	PortfolioService *portfolio.Service
	NewsService      *news.Service
	ForecastService  *forecast.Service

	Renderer  *web.Renderer
	Scheduler *scheduler.Scheduler
}

// Close releases the databases and the search index. The scheduler is
// stopped by the caller.
func (c *Container) Close() {
	if c.SessionsDB != nil {
		_ = c.SessionsDB.Close()
	}
	if c.ClientDataDB != nil {
		_ = c.ClientDataDB.Close()
	}
	if c.SearchIndex != nil {
		_ = c.SearchIndex.Close()
	}
}
