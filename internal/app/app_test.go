package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/infrastructure/config"
	"github.com/dataflow/console/internal/infrastructure/queue"
	"github.com/dataflow/console/internal/infrastructure/tokenstore"
	"github.com/dataflow/console/internal/testutil/fakebackend"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "Sup3r-secret!"
)

type fixture struct {
	app   *App
	fake  *fakebackend.Server
	clock *queue.Manual
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	fake := fakebackend.New()
	require.NoError(t, fake.AddUser(testEmail, testPassword, "Ana", domain.PlanFree))
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	cfg, err := config.LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATAFLOW_API_BASE_URL":   srv.URL,
		"DATAFLOW_API_RATE_LIMIT": "0",
		"DATAFLOW_TOKEN_STORE":    config.StoreMemory,
	}))
	require.NoError(t, err)

	clock := queue.NewManual(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	a, err := New(context.Background(), cfg, zerolog.Nop(),
		WithTokenStore(tokenstore.NewMemory()),
		WithScheduler(clock),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	a.Start(context.Background())
	return fixture{app: a, fake: fake, clock: clock}
}

func TestApp_StartsAnonymous(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, ports.SessionAnonymous, f.app.Session.State())
	require.NoError(t, f.app.Journal.Record(context.Background(), domain.ScrapeRequest{ID: "x"}))
}

func TestApp_UpgradeThenScrape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.app.Session.SignIn(ctx, testEmail, testPassword))
	user, ok := f.app.Session.User()
	require.True(t, ok)
	require.Equal(t, domain.PlanFree, user.Plan)

	in := ports.SubmitScrapeInput{URL: "https://www.amazon.com/dp/B0TEST", Platform: "amazon"}
	_, err := f.app.Scrapes.Submit(ctx, in)
	require.ErrorIs(t, err, domain.ErrNotEntitled)

	sub, err := f.app.Plans.Select(ctx, domain.PlanProfessional)
	require.NoError(t, err)
	require.Equal(t, domain.PlanProfessional, sub.Plan)
	user, _ = f.app.Session.User()
	require.Equal(t, domain.PlanProfessional, user.Plan)

	job, err := f.app.Scrapes.Submit(ctx, in)
	require.NoError(t, err)
	pending, ok := f.app.Scrapes.Pending()
	require.True(t, ok)
	require.Equal(t, job.ID(), pending)

	require.True(t, f.clock.RunNext()) // processing
	require.Equal(t, 25, job.Progress())
	require.True(t, f.clock.RunNext()) // completed

	select {
	case <-job.Done():
	default:
		t.Fatal("job should be finished")
	}
	require.NoError(t, job.Outcome())
	req := job.Request()
	require.Equal(t, domain.ScrapeCompleted, req.Status)
	require.NotNil(t, req.ResultCount)
	require.Equal(t, 42, *req.ResultCount)
	_, ok = f.app.Scrapes.Pending()
	require.False(t, ok)

	require.NoError(t, f.app.Scrapes.LoadHistory(ctx, 20, 0))
	require.Len(t, f.app.Scrapes.Requests(), 1)

	usage, err := f.app.Accounts.Usage(ctx)
	require.NoError(t, err)
	require.Positive(t, usage.APICalls)
}

func TestApp_FailedScrape(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fake.ScriptScrapes(domain.ScrapeFailed)

	require.NoError(t, f.app.Session.SignIn(ctx, testEmail, testPassword))
	_, err := f.app.Plans.Select(ctx, domain.PlanStarter)
	require.NoError(t, err)

	job, err := f.app.Scrapes.Submit(ctx, ports.SubmitScrapeInput{URL: "https://www.ebay.com/itm/1", Platform: "ebay"})
	require.NoError(t, err)
	require.True(t, f.clock.RunNext())

	var failure *domain.ScrapeFailure
	require.ErrorAs(t, job.Outcome(), &failure)
	require.Equal(t, "Target site blocked the scraper", failure.Message)
}

func TestApp_RouterServesSessionAndCatalog(t *testing.T) {
	f := newFixture(t)
	e := f.app.Router()

	body := `{"email":"` + testEmail + `","password":"` + testPassword + `"}`
	req := httptest.NewRequest(http.MethodPost, "/session/signin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/datasets?source=remote&platform=amazon", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Datasets []domain.Dataset `json:"datasets"`
		Total    int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.NotEmpty(t, page.Datasets)
	for _, d := range page.Datasets {
		require.Equal(t, domain.Platform("amazon"), d.Platform)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/account", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
