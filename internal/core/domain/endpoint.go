package domain

// EndpointParam documents one parameter of a public API endpoint.
type EndpointParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// APIEndpoint is a reference documentation entry for the public API.
type APIEndpoint struct {
	ID          string          `json:"id"`
	Method      string          `json:"method"`
	Path        string          `json:"path"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Parameters  []EndpointParam `json:"parameters"`
	Response    string          `json:"response"`
	Example     string          `json:"example"`
}

func (e APIEndpoint) Clone() APIEndpoint {
	e.Parameters = append([]EndpointParam(nil), e.Parameters...)
	return e
}
