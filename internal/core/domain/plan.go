package domain

// Unlimited marks a plan quota with no ceiling.
const Unlimited = -1

// PricingPlan is a read-only subscription tier descriptor.
type PricingPlan struct {
	ID          Plan     `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Period      string   `json:"period"`
	Features    []string `json:"features"`
	APICalls    int64    `json:"api_calls"`
	Datasets    string   `json:"datasets,omitempty"`
	Support     string   `json:"support,omitempty"`
	Highlighted bool     `json:"highlighted"`
}

func (p PricingPlan) UnlimitedCalls() bool {
	return p.APICalls == Unlimited
}

func (p PricingPlan) Clone() PricingPlan {
	p.Features = append([]string(nil), p.Features...)
	return p
}

// Subscription is the backend acknowledgement of a plan change.
type Subscription struct {
	Message string `json:"message"`
	Plan    Plan   `json:"plan"`
}

// APIKeyRotation is the result of regenerating the account API key.
type APIKeyRotation struct {
	APIKey  string `json:"api_key"`
	Message string `json:"message"`
}

// Account is the extended profile returned by the account endpoint.
type Account struct {
	User
	IsActive  bool   `json:"is_active"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
