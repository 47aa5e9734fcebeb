package api

import (
	"context"
	"sync"
)

// Credentials holds the opaque header bundle the upstream API requires. The
// bundle arrives asynchronously (in the original system it is intercepted
// from live requests), so consumers wait for it rather than polling. The
// contents are never inspected, only replayed onto outgoing requests.
type Credentials struct {
	once    sync.Once
	ready   chan struct{}
	headers map[string]string
}

// NewCredentials returns an empty bundle that Wait will block on until Set
// is called.
func NewCredentials() *Credentials {
	return &Credentials{ready: make(chan struct{})}
}

// Static returns a bundle that is immediately available.
func Static(headers map[string]string) *Credentials {
	c := NewCredentials()
	c.Set(headers)
	return c
}

// Set publishes the header bundle. Only the first call takes effect.
func (c *Credentials) Set(headers map[string]string) {
	c.once.Do(func() {
		c.headers = headers
		close(c.ready)
	})
}

// Wait blocks until the bundle is available or ctx expires. Callers bound
// the wait through the context; expiry surfaces as an AuthError.
func (c *Credentials) Wait(ctx context.Context) (map[string]string, error) {
	select {
	case <-c.ready:
		return c.headers, nil
	case <-ctx.Done():
		return nil, &AuthError{Reason: "credentials not available: " + ctx.Err().Error()}
	}
}
