package domain

import (
	"fmt"
	"strings"
	"time"
)

// ScrapeStatus is the lifecycle state of a scrape request.
type ScrapeStatus string

const (
	ScrapePending    ScrapeStatus = "pending"
	ScrapeProcessing ScrapeStatus = "processing"
	ScrapeCompleted  ScrapeStatus = "completed"
	ScrapeFailed     ScrapeStatus = "failed"
)

// statusRank orders statuses along the only direction a request may move.
var statusRank = map[ScrapeStatus]int{
	ScrapePending:    0,
	ScrapeProcessing: 1,
	ScrapeCompleted:  2,
	ScrapeFailed:     2,
}

// IsTerminal reports whether polling stops at this status.
func (s ScrapeStatus) IsTerminal() bool {
	return s == ScrapeCompleted || s == ScrapeFailed
}

// Known reports whether s is one of the four statuses the backend reports.
func (s ScrapeStatus) Known() bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next keeps the request
// moving forward. Staying in place is allowed; terminal statuses are final.
func (s ScrapeStatus) CanTransitionTo(next ScrapeStatus) bool {
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	from, ok := statusRank[s]
	if !ok {
		return next.Known()
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Platform identifies a supported e-commerce source.
type Platform string

const (
	PlatformAmazon  Platform = "amazon"
	PlatformShopify Platform = "shopify"
	PlatformEbay    Platform = "ebay"
	PlatformWalmart Platform = "walmart"
	PlatformEtsy    Platform = "etsy"
)

var platforms = []Platform{PlatformAmazon, PlatformShopify, PlatformEbay, PlatformWalmart, PlatformEtsy}

// Platforms returns the supported platforms in display order.
func Platforms() []Platform {
	out := make([]Platform, len(platforms))
	copy(out, platforms)
	return out
}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range platforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlatform, s)
}

// ScrapeRequest is the locally tracked record of one submitted scrape job.
type ScrapeRequest struct {
	ID           string       `json:"id"`
	URL          string       `json:"url"`
	Platform     string       `json:"platform"`
	Status       ScrapeStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	ResultCount  *int         `json:"result_count,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// ScrapeStatusReport is one status observation returned by the backend.
type ScrapeStatusReport struct {
	RequestID     string         `json:"request_id"`
	Status        ScrapeStatus   `json:"status"`
	Data          map[string]any `json:"data,omitempty"`
	RecordCount   *int           `json:"record_count,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	EstimatedTime string         `json:"estimated_time,omitempty"`
}

// Apply folds a status report into the record. Regressions are ignored and
// reported through the return value.
func (r *ScrapeRequest) Apply(report ScrapeStatusReport, now time.Time) bool {
	if report.Status != "" && report.Status.Known() {
		if !r.Status.CanTransitionTo(report.Status) {
			return false
		}
		r.Status = report.Status
	}
	if report.RecordCount != nil {
		n := *report.RecordCount
		r.ResultCount = &n
	}
	if report.ErrorMessage != "" {
		r.ErrorMessage = report.ErrorMessage
	}
	if r.Status == ScrapeCompleted && r.CompletedAt == nil {
		t := now
		r.CompletedAt = &t
	}
	return true
}

// Clone returns a deep copy safe to hand to callers.
func (r ScrapeRequest) Clone() ScrapeRequest {
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		r.CompletedAt = &t
	}
	if r.ResultCount != nil {
		n := *r.ResultCount
		r.ResultCount = &n
	}
	return r
}
