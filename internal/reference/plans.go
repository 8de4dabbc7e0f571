package reference

import "github.com/dataflow/console/internal/core/domain"

var plans = []domain.PricingPlan{
	{
		ID:     domain.PlanFree,
		Name:   "Free",
		Price:  0,
		Period: "month",
		Features: []string{
			"1,000 API calls/month",
			"Access to public datasets",
			"Basic data previews",
			"Community support",
			"7-day data freshness",
		},
		APICalls: 1000,
		Datasets: "Public only",
		Support:  "Community",
	},
	{
		ID:     domain.PlanStarter,
		Name:   "Starter",
		Price:  49,
		Period: "month",
		Features: []string{
			"50,000 API calls/month",
			"Access to all datasets",
			"Custom URL scraping (10/day)",
			"Email support",
			"Daily data updates",
			"Export to CSV/JSON",
		},
		APICalls: 50000,
		Datasets: "All datasets",
		Support:  "Email",
	},
	{
		ID:     domain.PlanProfessional,
		Name:   "Professional",
		Price:  199,
		Period: "month",
		Features: []string{
			"500,000 API calls/month",
			"Priority API access",
			"Custom URL scraping (100/day)",
			"Priority support",
			"Real-time data updates",
			"Advanced filtering",
			"Webhook integrations",
			"Historical data access",
		},
		APICalls:    500000,
		Datasets:    "All + Historical",
		Support:     "Priority",
		Highlighted: true,
	},
	{
		ID:     domain.PlanEnterprise,
		Name:   "Enterprise",
		Price:  999,
		Period: "month",
		Features: []string{
			"Unlimited API calls",
			"Dedicated infrastructure",
			"Custom scraping (unlimited)",
			"24/7 dedicated support",
			"Custom data pipelines",
			"SLA guarantees",
			"On-premise deployment option",
			"White-label API",
		},
		APICalls: domain.Unlimited,
		Datasets: "Custom",
		Support:  "Dedicated",
	},
}

// Plans returns a copy of the pricing tiers, cheapest first.
func Plans() []domain.PricingPlan {
	out := make([]domain.PricingPlan, len(plans))
	for i, p := range plans {
		out[i] = p.Clone()
	}
	return out
}

func Plan(id domain.Plan) (domain.PricingPlan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return domain.PricingPlan{}, false
}
