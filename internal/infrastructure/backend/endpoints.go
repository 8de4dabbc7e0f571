package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/pkg/metrics"
)

// ── Auth ──────────────────────────────────────────────────────────────────────

func (c *Client) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.User, error) {
	var out userDTO
	err := c.execute(ctx, call{
		method: http.MethodPost,
		path:   "/auth/signup",
		body: map[string]string{
			"email":    in.Email,
			"password": in.Password,
			"name":     in.Name,
		},
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	u := out.toDomain()
	return &u, nil
}

// SignIn posts the credentials form-encoded, never as JSON, and without any
// stored token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*ports.Token, error) {
	var out tokenDTO
	err := c.execute(ctx, call{
		method: http.MethodPost,
		path:   "/auth/signin",
		form: map[string]string{
			"username": email,
			"password": password,
		},
		anonymous: true,
		fallback:  "Sign in failed",
		result:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &ports.Token{AccessToken: out.AccessToken, TokenType: out.TokenType}, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var out userDTO
	if err := c.execute(ctx, call{method: http.MethodGet, path: "/auth/me", result: &out}); err != nil {
		return nil, err
	}
	u := out.toDomain()
	return &u, nil
}

func (c *Client) RefreshToken(ctx context.Context) (*ports.Token, error) {
	var out tokenDTO
	if err := c.execute(ctx, call{method: http.MethodPost, path: "/auth/refresh", result: &out}); err != nil {
		return nil, err
	}
	return &ports.Token{AccessToken: out.AccessToken, TokenType: out.TokenType}, nil
}

// ── Datasets ──────────────────────────────────────────────────────────────────

func (c *Client) ListDatasets(ctx context.Context, f domain.DatasetFilter) (*domain.DatasetPage, error) {
	q := url.Values{}
	if f.Platform != "" && f.Platform != "all" {
		q.Set("platform", f.Platform)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Premium != nil {
		q.Set("is_premium", strconv.FormatBool(*f.Premium))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}

	var out datasetPageDTO
	if err := c.execute(ctx, call{method: http.MethodGet, path: "/datasets", query: q, result: &out}); err != nil {
		return nil, err
	}

	page := &domain.DatasetPage{
		Datasets: make([]domain.Dataset, 0, len(out.Datasets)),
		Total:    out.Total,
		Page:     out.Page,
		PerPage:  out.PerPage,
	}
	for _, d := range out.Datasets {
		page.Datasets = append(page.Datasets, d.toDomain())
	}
	return page, nil
}

// GetDataset serves repeated lookups from the expiring LRU cache.
func (c *Client) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	if c.datasets != nil {
		if d, ok := c.datasets.Get(id); ok {
			metrics.DatasetCacheTotal.WithLabelValues("hit").Inc()
			clone := d.Clone()
			return &clone, nil
		}
		metrics.DatasetCacheTotal.WithLabelValues("miss").Inc()
	}

	var out datasetDTO
	err := c.execute(ctx, call{
		method:     http.MethodGet,
		path:       "/datasets/{id}",
		pathParams: map[string]string{"id": id},
		result:     &out,
	})
	if err != nil {
		return nil, err
	}

	d := out.toDomain()
	if c.datasets != nil {
		c.datasets.Add(id, d.Clone())
	}
	return &d, nil
}

func (c *Client) DownloadDataset(ctx context.Context, id string) (*domain.DownloadLink, error) {
	var out domain.DownloadLink
	err := c.execute(ctx, call{
		method:     http.MethodPost,
		path:       "/datasets/{id}/download",
		pathParams: map[string]string{"id": id},
		result:     &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Scraping ──────────────────────────────────────────────────────────────────

func (c *Client) SubmitScrape(ctx context.Context, in ports.ScrapeSubmission) (*domain.ScrapeStatusReport, error) {
	var out domain.ScrapeStatusReport
	err := c.execute(ctx, call{
		method: http.MethodPost,
		path:   "/scrape",
		body: scrapeSubmissionDTO{
			URL:      in.URL,
			Platform: in.Platform,
			Fields:   in.Fields,
			Webhook:  in.Webhook,
		},
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ScrapeStatus(ctx context.Context, requestID string) (*domain.ScrapeStatusReport, error) {
	var out domain.ScrapeStatusReport
	err := c.execute(ctx, call{
		method:     http.MethodGet,
		path:       "/scrape/{id}",
		pathParams: map[string]string{"id": requestID},
		result:     &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ScrapeHistory(ctx context.Context, limit, offset int) (*ports.ScrapeHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var out scrapeHistoryDTO
	if err := c.execute(ctx, call{method: http.MethodGet, path: "/scrape", query: q, result: &out}); err != nil {
		return nil, err
	}

	h := &ports.ScrapeHistory{
		Requests: make([]domain.ScrapeRequest, 0, len(out.Requests)),
		Total:    out.Total,
	}
	for _, r := range out.Requests {
		h.Requests = append(h.Requests, r.toDomain())
	}
	return h, nil
}

func (c *Client) CancelScrape(ctx context.Context, requestID string) (string, error) {
	var out messageDTO
	err := c.execute(ctx, call{
		method:     http.MethodDelete,
		path:       "/scrape/{id}",
		pathParams: map[string]string{"id": requestID},
		result:     &out,
	})
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// ── Account & billing ─────────────────────────────────────────────────────────

func (c *Client) Account(ctx context.Context) (*domain.Account, error) {
	var out accountDTO
	if err := c.execute(ctx, call{method: http.MethodGet, path: "/account", result: &out}); err != nil {
		return nil, err
	}
	return &domain.Account{
		User:      out.userDTO.toDomain(),
		IsActive:  out.IsActive,
		UpdatedAt: out.UpdatedAt,
	}, nil
}

func (c *Client) Usage(ctx context.Context) (*domain.Usage, error) {
	var out usageDTO
	if err := c.execute(ctx, call{method: http.MethodGet, path: "/account/usage", result: &out}); err != nil {
		return nil, err
	}
	return &domain.Usage{
		APICalls:  out.APICalls,
		Quota:     out.Quota,
		Remaining: out.Remaining,
		ResetDate: parseTimestampPtr(out.ResetDate),
	}, nil
}

func (c *Client) RegenerateAPIKey(ctx context.Context) (*domain.APIKeyRotation, error) {
	var out domain.APIKeyRotation
	if err := c.execute(ctx, call{method: http.MethodPost, path: "/account/api-key/regenerate", result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Plans(ctx context.Context) ([]domain.PricingPlan, error) {
	var out plansDTO
	if err := c.execute(ctx, call{method: http.MethodGet, path: "/billing/plans", result: &out}); err != nil {
		return nil, err
	}
	return out.Plans, nil
}

func (c *Client) Subscribe(ctx context.Context, plan domain.Plan) (*domain.Subscription, error) {
	var out domain.Subscription
	err := c.execute(ctx, call{
		method: http.MethodPost,
		path:   "/billing/subscribe",
		query:  url.Values{"plan_id": []string{string(plan)}},
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
