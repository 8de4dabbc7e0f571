package mongo

import (
	"context"
	"testing"
	"time"
)

func TestConnect_UnreachableFailsWithinTimeout(t *testing.T) {
	start := time.Now()
	_, _, err := Connect(context.Background(), Config{
		URI:      "mongodb://127.0.0.1:1/?directConnection=true",
		Database: "dataflow_console_test",
		Timeout:  300 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error for unreachable mongo")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("Connect took %v, want it bounded by the configured timeout", elapsed)
	}
}
