package domain

import (
	"fmt"
	"strings"
	"time"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree         Plan = "free"
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

var plans = []Plan{PlanFree, PlanStarter, PlanProfessional, PlanEnterprise}

// Plans returns every known tier, lowest first.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// ParsePlan maps a plan identifier onto a known tier.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range plans {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlan, s)
}

// CanScrape reports whether the tier is entitled to custom URL scraping.
// Scraping is restricted to paid tiers.
func (p Plan) CanScrape() bool {
	return p != "" && p != PlanFree
}

// User is the profile of the signed-in account as reported by the backend.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Plan      Plan      `json:"plan"`
	APIKey    string    `json:"api_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage is the API quota snapshot for the current billing period.
type Usage struct {
	APICalls  int64      `json:"api_calls"`
	Quota     int64      `json:"quota"`
	Remaining int64      `json:"remaining"`
	ResetDate *time.Time `json:"reset_date,omitempty"`
}

// Unlimited reports whether the quota has no ceiling.
func (u Usage) Unlimited() bool {
	return u.Quota < 0
}
