// Package docs registers the console API OpenAPI document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {"get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}},
        "/health/ready": {"get": {"tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Degraded"}}}},
        "/session": {
            "get": {"tags": ["session"], "summary": "Current session", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["session"], "summary": "Sign out", "responses": {"204": {"description": "No Content"}}}
        },
        "/session/signin": {"post": {"tags": ["session"], "summary": "Sign in", "consumes": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}},
        "/session/signup": {"post": {"tags": ["session"], "summary": "Sign up", "consumes": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}},
        "/session/refresh": {"post": {"tags": ["session"], "summary": "Refresh session", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/datasets": {"get": {"tags": ["datasets"], "summary": "List datasets", "parameters": [
            {"type": "string", "name": "search", "in": "query"},
            {"type": "string", "name": "platform", "in": "query"},
            {"type": "string", "name": "category", "in": "query"},
            {"type": "boolean", "name": "premium", "in": "query"},
            {"type": "integer", "name": "limit", "in": "query"},
            {"type": "integer", "name": "offset", "in": "query"},
            {"type": "string", "name": "source", "in": "query"}
        ], "responses": {"200": {"description": "OK"}}}},
        "/datasets/{id}": {"get": {"tags": ["datasets"], "summary": "Get a dataset", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/datasets/{id}/download": {"post": {"tags": ["datasets"], "summary": "Download a dataset", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/endpoints": {"get": {"tags": ["reference"], "summary": "API reference", "parameters": [{"type": "string", "name": "category", "in": "query"}], "responses": {"200": {"description": "OK"}}}},
        "/plans": {"get": {"tags": ["billing"], "summary": "List plans", "responses": {"200": {"description": "OK"}}}},
        "/plans/{id}/subscribe": {"post": {"tags": ["billing"], "summary": "Subscribe to a plan", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/account": {"get": {"tags": ["account"], "summary": "Account", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/account/usage": {"get": {"tags": ["account"], "summary": "API usage", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/account/api-key": {"post": {"tags": ["account"], "summary": "Regenerate API key", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/scrapes": {
            "get": {"tags": ["scrapes"], "summary": "List scrapes", "parameters": [
                {"type": "boolean", "name": "refresh", "in": "query"},
                {"type": "integer", "name": "limit", "in": "query"},
                {"type": "integer", "name": "offset", "in": "query"}
            ], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["scrapes"], "summary": "Submit a scrape", "consumes": ["application/json"], "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}}}
        },
        "/scrapes/{id}": {
            "get": {"tags": ["scrapes"], "summary": "Get a scrape", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["scrapes"], "summary": "Cancel a scrape", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "DataFlow Console API",
	Description:      "Local JSON API driving the DataFlow session, catalog, billing and scrape workflow.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
