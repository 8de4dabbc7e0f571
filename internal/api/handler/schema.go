package handler

import (
	"time"

	"github.com/dataflow/console/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Session ---

type signInRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signUpRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"     validate:"required,max=255"`
}

type sessionResponse struct {
	State          string       `json:"state"`
	Authenticated  bool         `json:"authenticated"`
	User           *domain.User `json:"user,omitempty"`
	TokenExpiresAt *time.Time   `json:"token_expires_at,omitempty"`
	CanScrape      bool         `json:"can_scrape"`
}

// --- Catalog ---

type datasetListResponse struct {
	Datasets []domain.Dataset `json:"datasets"`
	Total    int              `json:"total"`
	Source   string           `json:"source"`
}

type endpointListResponse struct {
	Endpoints  []domain.APIEndpoint `json:"endpoints"`
	Categories []string             `json:"categories"`
}

// --- Plans ---

type planView struct {
	domain.PricingPlan
	Current    bool `json:"current"`
	Selectable bool `json:"selectable"`
}

type planListResponse struct {
	Plans []planView `json:"plans"`
}

// --- Scrapes ---

type scrapeView struct {
	domain.ScrapeRequest
	// Progress is only reported for jobs tracked by this process.
	Progress *int   `json:"progress,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

type scrapeListResponse struct {
	Requests []scrapeView `json:"requests"`
	Pending  string       `json:"pending,omitempty"`
}
