package testutil

import (
	"context"
	"testing"
	"time"
)

const defaultTestTimeout = 30 * time.Second

// NewTestContext creates a context with a sensible default timeout for tests.
func NewTestContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	t.Cleanup(cancel)

	return ctx
}
