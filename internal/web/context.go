package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/vmapp/internal/core"
	mw "github.com/JonMunkholm/vmapp/internal/web/middleware"
)

// requestContext returns the request context carrying the client IP,
// already resolved by the trusted real-IP middleware, for import logs.
func requestContext(r *http.Request) context.Context {
	return core.ContextWithClientIP(r.Context(), mw.ClientIP(r))
}
