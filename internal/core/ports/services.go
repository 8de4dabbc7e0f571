package ports

import (
	"context"
	"time"

	"github.com/dataflow/console/internal/core/domain"
)

// SessionState is the authentication lifecycle state.
type SessionState string

const (
	SessionLoading       SessionState = "loading"
	SessionAuthenticated SessionState = "authenticated"
	SessionAnonymous     SessionState = "anonymous"
)

// SessionService owns who is signed in.
type SessionService interface {
	Start(ctx context.Context)
	State() SessionState
	IsLoading() bool
	IsAuthenticated() bool
	User() (domain.User, bool)
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, name string) error
	SignOut(ctx context.Context) error
	RefreshUser(ctx context.Context) error
	RotateToken(ctx context.Context) error
	EnsureFreshToken(ctx context.Context) (bool, error)
	TokenExpiry(ctx context.Context) (time.Time, bool)
}

// SubmitScrapeInput is the user-facing scrape submission.
type SubmitScrapeInput struct {
	URL      string   `json:"url" validate:"required,url,max=2048"`
	Platform string   `json:"platform" validate:"required,platform"`
	Fields   []string `json:"fields,omitempty" validate:"omitempty,dive,required,max=64"`
	Webhook  string   `json:"webhook,omitempty" validate:"omitempty,url"`
}

// ScrapeJob is a handle to one tracked scrape.
type ScrapeJob interface {
	ID() string
	// Done is closed once the job reached its outcome.
	Done() <-chan struct{}
	// Outcome is nil on completion and the terminal error otherwise. Only
	// meaningful once Done is closed.
	Outcome() error
	// Progress is the synthetic liveness indicator in [0,100].
	Progress() int
	Request() domain.ScrapeRequest
}

type ScrapeService interface {
	Submit(ctx context.Context, in SubmitScrapeInput) (ScrapeJob, error)
	Cancel(ctx context.Context, requestID string) error
	Requests() []domain.ScrapeRequest
	Get(requestID string) (domain.ScrapeRequest, bool)
	Job(requestID string) (ScrapeJob, bool)
	Pending() (string, bool)
	LoadHistory(ctx context.Context, limit, offset int) error
}

type CatalogService interface {
	Datasets(filter domain.DatasetFilter) []domain.Dataset
	Dataset(id string) (domain.Dataset, bool)
	Remote(ctx context.Context, filter domain.DatasetFilter) (*domain.DatasetPage, error)
	Download(ctx context.Context, id string) (*domain.DownloadLink, error)
	Endpoints() []domain.APIEndpoint
}

type PlanService interface {
	Plans() []domain.PricingPlan
	CanSelect(plan domain.Plan) bool
	Select(ctx context.Context, plan domain.Plan) (*domain.Subscription, error)
}

type AccountService interface {
	Usage(ctx context.Context) (*domain.Usage, error)
	Account(ctx context.Context) (*domain.Account, error)
	RegenerateAPIKey(ctx context.Context) (*domain.APIKeyRotation, error)
}
