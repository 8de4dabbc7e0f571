package reference

import "github.com/dataflow/console/internal/core/domain"

var endpoints = []domain.APIEndpoint{
	{
		ID:          "get-datasets",
		Method:      "GET",
		Path:        "/api/v1/datasets",
		Category:    "Datasets",
		Description: "Retrieve a list of all available datasets with filtering options",
		Parameters: []domain.EndpointParam{
			{Name: "platform", Type: "string", Description: "Filter by e-commerce platform (amazon, shopify, ebay, walmart, etsy)"},
			{Name: "category", Type: "string", Description: "Filter by product category"},
			{Name: "limit", Type: "number", Description: "Maximum number of results (default: 50)"},
			{Name: "offset", Type: "number", Description: "Pagination offset (default: 0)"},
		},
		Response: `{ "datasets": [...], "total": 123, "page": 1 }`,
		Example: `curl -X GET "https://api.dataflow.com/v1/datasets?platform=amazon&limit=10" \
  -H "Authorization: Bearer YOUR_API_KEY"`,
	},
	{
		ID:          "get-dataset",
		Method:      "GET",
		Path:        "/api/v1/datasets/{id}",
		Category:    "Datasets",
		Description: "Get detailed information about a specific dataset including sample data",
		Parameters: []domain.EndpointParam{
			{Name: "id", Type: "string", Required: true, Description: "Dataset unique identifier"},
			{Name: "preview", Type: "boolean", Description: "Include preview data (default: true)"},
		},
		Response: `{ "id": "...", "name": "...", "platform": "...", "previewData": [...] }`,
		Example: `curl -X GET "https://api.dataflow.com/v1/datasets/abc123" \
  -H "Authorization: Bearer YOUR_API_KEY"`,
	},
	{
		ID:          "scrape-url",
		Method:      "POST",
		Path:        "/api/v1/scrape",
		Category:    "Scraping",
		Description: "Submit a custom URL for scraping from supported e-commerce platforms",
		Parameters: []domain.EndpointParam{
			{Name: "url", Type: "string", Required: true, Description: "Target URL to scrape"},
			{Name: "platform", Type: "string", Required: true, Description: "E-commerce platform identifier"},
			{Name: "fields", Type: "array", Description: "Specific fields to extract"},
			{Name: "webhook", Type: "string", Description: "Webhook URL for completion notification"},
		},
		Response: `{ "requestId": "...", "status": "processing", "estimatedTime": "30s" }`,
		Example: `curl -X POST "https://api.dataflow.com/v1/scrape" \
  -H "Authorization: Bearer YOUR_API_KEY" \
  -H "Content-Type: application/json" \
  -d '{"url": "https://amazon.com/product/...", "platform": "amazon"}'`,
	},
	{
		ID:          "get-scrape-status",
		Method:      "GET",
		Path:        "/api/v1/scrape/{requestId}",
		Category:    "Scraping",
		Description: "Check the status and retrieve results of a scraping request",
		Parameters: []domain.EndpointParam{
			{Name: "requestId", Type: "string", Required: true, Description: "Scraping request ID from POST /scrape"},
		},
		Response: `{ "requestId": "...", "status": "completed", "data": {...}, "recordCount": 1 }`,
		Example: `curl -X GET "https://api.dataflow.com/v1/scrape/req_abc123" \
  -H "Authorization: Bearer YOUR_API_KEY"`,
	},
	{
		ID:          "export-dataset",
		Method:      "POST",
		Path:        "/api/v1/datasets/{id}/export",
		Category:    "Export",
		Description: "Export a dataset in your preferred format (CSV, JSON, Parquet)",
		Parameters: []domain.EndpointParam{
			{Name: "id", Type: "string", Required: true, Description: "Dataset unique identifier"},
			{Name: "format", Type: "string", Required: true, Description: "Export format: csv, json, or parquet"},
			{Name: "filters", Type: "object", Description: "Optional filters to apply before export"},
		},
		Response: `{ "exportId": "...", "downloadUrl": "...", "expiresAt": "..." }`,
		Example: `curl -X POST "https://api.dataflow.com/v1/datasets/abc123/export" \
  -H "Authorization: Bearer YOUR_API_KEY" \
  -H "Content-Type: application/json" \
  -d '{"format": "csv"}'`,
	},
	{
		ID:          "get-usage",
		Method:      "GET",
		Path:        "/api/v1/account/usage",
		Category:    "Account",
		Description: "Get current API usage statistics and remaining quota",
		Parameters: []domain.EndpointParam{
			{Name: "period", Type: "string", Description: "Time period: current, last_month, last_year"},
		},
		Response: `{ "apiCalls": 12450, "quota": 50000, "remaining": 37550, "resetDate": "..." }`,
		Example: `curl -X GET "https://api.dataflow.com/v1/account/usage" \
  -H "Authorization: Bearer YOUR_API_KEY"`,
	},
}

// Endpoints returns the public API reference in display order.
func Endpoints() []domain.APIEndpoint {
	out := make([]domain.APIEndpoint, len(endpoints))
	for i, e := range endpoints {
		out[i] = e.Clone()
	}
	return out
}

// EndpointCategories lists the distinct categories in first-seen order.
func EndpointCategories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range endpoints {
		if !seen[e.Category] {
			seen[e.Category] = true
			out = append(out, e.Category)
		}
	}
	return out
}
