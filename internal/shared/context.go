package shared

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const actorKey contextKey = "actor"

// Actor identifies the operator performing a request. Authentication happens at
// the gateway; this service only needs attribution for audit records.
type Actor struct {
	ID int64
	IP string
}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the actor, zero-valued when absent.
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey).(Actor)
	return actor
}

// ActorFromRequest resolves the acting operator from gateway headers.
func ActorFromRequest(r *http.Request) Actor {
	id, _ := strconv.ParseInt(strings.TrimSpace(r.Header.Get("X-Actor-ID")), 10, 64)
	ip := r.Header.Get("X-Forwarded-For")
	if idx := strings.Index(ip, ","); idx > 0 {
		ip = ip[:idx]
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}
	return Actor{ID: id, IP: ip}
}
