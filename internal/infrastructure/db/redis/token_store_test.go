package redis

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis runs a throwaway Redis container. Integration tests only run
// when DATAFLOW_INTEGRATION is set.
func startRedis(t *testing.T) Config {
	t.Helper()
	if os.Getenv("DATAFLOW_INTEGRATION") == "" {
		t.Skip("set DATAFLOW_INTEGRATION=1 to run redis integration tests")
	}

	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Fatal(err)
		}
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := c.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatal(err)
	}
	return Config{Addr: fmt.Sprintf("%s:%s", host, port.Port())}
}

func TestTokenStore_RoundTrip(t *testing.T) {
	cfg := startRedis(t)
	ctx := context.Background()

	client, err := Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	defer client.Close()

	store := NewTokenStore(client, "test")

	if _, ok, err := store.Get(ctx); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	for _, token := range []string{"opaque", "a.b.c", "tok with spaces"} {
		if err := store.Set(ctx, token); err != nil {
			t.Fatalf("Set returned error: %v", err)
		}
		got, ok, err := store.Get(ctx)
		if err != nil || !ok || got != token {
			t.Fatalf("Get = %q, %v, %v; want %q", got, ok, err, token)
		}
	}

	if err := store.Remove(ctx); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, ok, _ := store.Get(ctx); ok {
		t.Fatalf("expected token removed")
	}
}

func TestTokenStore_JWTExpirySetsTTL(t *testing.T) {
	cfg := startRedis(t)
	ctx := context.Background()

	client, err := Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	defer client.Close()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	store := NewTokenStore(client, "")
	if err := store.Set(ctx, token); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	ttl, err := client.TTL(ctx, store.Key()).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected ttl within (0, 1h], got %v", ttl)
	}
}

func TestTokenStore_TTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &TokenStore{now: func() time.Time { return now }}

	future, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Add(10 * time.Minute).Unix()}).SignedString([]byte("k"))
	past, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}).SignedString([]byte("k"))

	if got := s.ttl(future); got != 10*time.Minute {
		t.Fatalf("ttl(future) = %v", got)
	}
	if got := s.ttl(past); got != 0 {
		t.Fatalf("ttl(past) = %v", got)
	}
	if got := s.ttl("opaque"); got != 0 {
		t.Fatalf("ttl(opaque) = %v", got)
	}
}
