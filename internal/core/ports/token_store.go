package ports

import "context"

// TokenKey is the fixed key the access token is persisted under.
const TokenKey = "dataflow_access_token"

// TokenStore persists at most one bearer token across process restarts.
// Get after Set(t) returns exactly t; Get after Remove reports ok=false.
type TokenStore interface {
	Get(ctx context.Context) (token string, ok bool, err error)
	Set(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}
