// Package requestid carries the correlation id of an HTTP request through
// contexts, access logs, error bodies and outbox events.
package requestid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

const Header = "X-Request-Id"

const maxLen = 64

type ctxKey struct{}

func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Get returns the id stored in ctx, or "" outside a request.
func Get(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// New returns 32 random hex characters.
func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "00000000000000000000000000000000"
	}
	return hex.EncodeToString(b[:])
}

// Valid reports whether a client supplied id can be echoed back: 1 to 64
// visible ASCII characters.
func Valid(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
