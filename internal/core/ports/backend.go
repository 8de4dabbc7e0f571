package ports

import (
	"context"

	"github.com/dataflow/console/internal/core/domain"
)

// Token is the result of a credential exchange or rotation.
type Token struct {
	AccessToken string
	TokenType   string
}

// SignUpInput is the registration payload.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// ScrapeSubmission is the payload of POST /scrape.
type ScrapeSubmission struct {
	URL      string
	Platform string
	Fields   []string
	Webhook  string
}

// ScrapeHistory is one page of the remote scrape history.
type ScrapeHistory struct {
	Requests []domain.ScrapeRequest
	Total    int
}

type AuthAPI interface {
	SignUp(ctx context.Context, in SignUpInput) (*domain.User, error)
	// SignIn exchanges credentials using the form-encoded password grant.
	SignIn(ctx context.Context, email, password string) (*Token, error)
	CurrentUser(ctx context.Context) (*domain.User, error)
	RefreshToken(ctx context.Context) (*Token, error)
}

type ScrapeAPI interface {
	SubmitScrape(ctx context.Context, in ScrapeSubmission) (*domain.ScrapeStatusReport, error)
	ScrapeStatus(ctx context.Context, requestID string) (*domain.ScrapeStatusReport, error)
	ScrapeHistory(ctx context.Context, limit, offset int) (*ScrapeHistory, error)
	CancelScrape(ctx context.Context, requestID string) (string, error)
}

type CatalogAPI interface {
	ListDatasets(ctx context.Context, filter domain.DatasetFilter) (*domain.DatasetPage, error)
	GetDataset(ctx context.Context, id string) (*domain.Dataset, error)
	DownloadDataset(ctx context.Context, id string) (*domain.DownloadLink, error)
}

type AccountAPI interface {
	Account(ctx context.Context) (*domain.Account, error)
	Usage(ctx context.Context) (*domain.Usage, error)
	RegenerateAPIKey(ctx context.Context) (*domain.APIKeyRotation, error)
}

type BillingAPI interface {
	Plans(ctx context.Context) ([]domain.PricingPlan, error)
	Subscribe(ctx context.Context, plan domain.Plan) (*domain.Subscription, error)
}

// Backend is the full remote contract consumed by the console.
type Backend interface {
	AuthAPI
	ScrapeAPI
	CatalogAPI
	AccountAPI
	BillingAPI
	// Ping checks the backend origin is reachable.
	Ping(ctx context.Context) error
}
