// Package api wires the HTTP surface: routing, the middleware chain,
// and the per-endpoint handlers.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ccoapp/cco-api/pkg/httputil"
	"github.com/ccoapp/cco-api/pkg/identity"
	"github.com/ccoapp/cco-api/pkg/middleware"
	"github.com/ccoapp/cco-api/pkg/observability"
	"github.com/ccoapp/cco-api/pkg/users"
)

// Options configures the server.
type Options struct {
	// ExemptRoutes are the path prefixes that bypass authentication, in
	// check order.
	ExemptRoutes []string

	// Metrics instruments the request pipeline when non-nil.
	Metrics *observability.Metrics
}

// Server is the API server. It implements http.Handler; the full
// middleware chain runs in front of the router.
type Server struct {
	router  *mux.Router
	handler http.Handler
	log     *observability.Logger
}

// NewServer assembles the router and middleware chain. The chain, outermost
// first: request ID, access log, metrics, CORS, panic recovery, auth gate,
// router. Handlers run behind all of it; any error they return reaches the
// translator exactly once.
func NewServer(svc *users.Service, resolver identity.Resolver, log *observability.Logger, opts Options) (*Server, error) {
	s := &Server{
		router: mux.NewRouter(),
		log:    log,
	}

	userHandlers := NewUserHandlers(svc, log)
	userHandlers.RegisterRoutes(s.router)

	openapiHandlers, err := NewOpenAPIHandlers(log)
	if err != nil {
		return nil, err
	}
	openapiHandlers.RegisterRoutes(s.router)

	gate := middleware.NewAuthGate(resolver, opts.ExemptRoutes, log)

	var handler http.Handler = gate.Handler(s.router)
	handler = httputil.RecoveryMiddleware(log)(handler)
	handler = httputil.CORSMiddleware(handler)
	if opts.Metrics != nil {
		handler = opts.Metrics.Middleware(handler)
	}
	handler = httputil.LoggingMiddleware(log)(handler)
	handler = middleware.RequestID(handler)
	s.handler = handler

	return s, nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the bare router, without the middleware chain, for
// route-level tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

// handlerFunc is an HTTP handler that reports failures instead of
// writing them. The adapter below performs the single translation step
// for every error raised by guards, the service layer, or validation.
type handlerFunc func(http.ResponseWriter, *http.Request) error

// handle adapts a handlerFunc to http.HandlerFunc, translating any
// returned error into the uniform envelope.
func handle(log *observability.Logger, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			httputil.WriteError(w, r, log, err)
		}
	}
}
