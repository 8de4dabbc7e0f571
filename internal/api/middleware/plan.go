package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dataflow/console/internal/core/domain"
)

// RequirePlan enforces plan-based access. It must run after RequireSession.
func RequirePlan(allowedPlans ...domain.Plan) echo.MiddlewareFunc {
	allowed := make(map[domain.Plan]struct{}, len(allowedPlans))
	for _, p := range allowedPlans {
		allowed[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, _ := c.Get(UserKey).(domain.User)
			if _, ok := allowed[u.Plan]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "your plan does not include this feature"})
			}
			return next(c)
		}
	}
}

// PaidPlans are the tiers entitled to custom scraping.
func PaidPlans() []domain.Plan {
	var out []domain.Plan
	for _, p := range domain.Plans() {
		if p.CanScrape() {
			out = append(out, p)
		}
	}
	return out
}
