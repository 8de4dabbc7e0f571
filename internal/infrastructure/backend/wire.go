package backend

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/dataflow/console/internal/core/domain"
)

// flexID accepts both numeric and string identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTimestamp reads the ISO-8601 variants the backend emits. Timestamps
// without a zone are UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseTimestampPtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := parseTimestamp(*s)
	if !ok {
		return nil
	}
	return &t
}

type tokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userDTO struct {
	ID        flexID  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Plan      string  `json:"plan"`
	APIKey    *string `json:"api_key"`
	CreatedAt string  `json:"created_at"`
}

func (u userDTO) toDomain() domain.User {
	user := domain.User{
		ID:    string(u.ID),
		Email: u.Email,
		Name:  u.Name,
		Plan:  domain.Plan(strings.ToLower(u.Plan)),
	}
	if u.APIKey != nil {
		user.APIKey = *u.APIKey
	}
	if t, ok := parseTimestamp(u.CreatedAt); ok {
		user.CreatedAt = t
	}
	return user
}

type accountDTO struct {
	userDTO
	IsActive  bool   `json:"is_active"`
	UpdatedAt string `json:"updated_at"`
}

type datasetDTO struct {
	ID          flexID              `json:"id"`
	Name        string              `json:"name"`
	Platform    string              `json:"platform"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	RecordCount int64               `json:"record_count"`
	Size        string              `json:"size"`
	IsPremium   bool                `json:"is_premium"`
	Tags        []string            `json:"tags"`
	Preview     domain.PreviewTable `json:"preview_data"`
	LastUpdated string              `json:"last_updated"`
}

func (d datasetDTO) toDomain() domain.Dataset {
	return domain.Dataset{
		ID:          string(d.ID),
		Name:        d.Name,
		Platform:    domain.Platform(d.Platform),
		Category:    d.Category,
		Description: d.Description,
		RecordCount: d.RecordCount,
		Size:        d.Size,
		LastUpdated: d.LastUpdated,
		IsPremium:   d.IsPremium,
		Tags:        d.Tags,
		Preview:     d.Preview,
	}
}

type datasetPageDTO struct {
	Datasets []datasetDTO `json:"datasets"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PerPage  int          `json:"per_page"`
}

type scrapeSubmissionDTO struct {
	URL      string   `json:"url"`
	Platform string   `json:"platform"`
	Fields   []string `json:"fields,omitempty"`
	Webhook  string   `json:"webhook,omitempty"`
}

type scrapeHistoryItemDTO struct {
	RequestID   string  `json:"request_id"`
	URL         string  `json:"url"`
	Platform    string  `json:"platform"`
	Status      string  `json:"status"`
	ResultCount *int    `json:"result_count"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt *string `json:"completed_at"`
}

func (h scrapeHistoryItemDTO) toDomain() domain.ScrapeRequest {
	r := domain.ScrapeRequest{
		ID:          h.RequestID,
		URL:         h.URL,
		Platform:    h.Platform,
		Status:      domain.ScrapeStatus(h.Status),
		ResultCount: h.ResultCount,
		CompletedAt: parseTimestampPtr(h.CompletedAt),
	}
	if t, ok := parseTimestamp(h.CreatedAt); ok {
		r.CreatedAt = t
	}
	return r
}

type scrapeHistoryDTO struct {
	Requests []scrapeHistoryItemDTO `json:"requests"`
	Total    int                    `json:"total"`
}

type usageDTO struct {
	APICalls  int64   `json:"api_calls"`
	Quota     int64   `json:"quota"`
	Remaining int64   `json:"remaining"`
	ResetDate *string `json:"reset_date"`
}

type messageDTO struct {
	Message string `json:"message"`
}

type plansDTO struct {
	Plans []domain.PricingPlan `json:"plans"`
}
