package httpserver

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/CarVault/CarVault/internal/common/auth"
	"github.com/CarVault/CarVault/internal/common/logger"
	"github.com/CarVault/CarVault/internal/common/middleware"
)

type ctxKey int

const claimsKey ctxKey = iota

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}

// authenticate verifies the bearer token and stashes its claims on the
// request context. Missing or bad tokens get a uniform 401.
func authenticate(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.Verify(r.Header.Get("Authorization"))
			if err != nil {
				writeProblem(w, newProblem(r, http.StatusUnauthorized, "Unauthorized", ""))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// requireRole gates mutations on a role carried in the token claims.
func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFrom(r.Context())
			if claims == nil || !claims.HasRole(role) {
				writeProblem(w, newProblem(r, http.StatusForbidden, "Forbidden", ""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog logs one line per request, leveled by response status.
func accessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			entry := log.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": chimw.GetReqID(r.Context()),
				"remote":     r.RemoteAddr,
			})

			switch {
			case ww.Status() >= http.StatusInternalServerError:
				entry.Error("request completed")
			case ww.Status() >= http.StatusBadRequest:
				entry.Warn("request completed")
			default:
				entry.Info("request completed")
			}
		})
	}
}

// recovery converts handler panics into 500 problems instead of letting
// the connection die.
func recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithField("panic", rec).Errorf("panic recovered: %s", debug.Stack())
					writeProblem(w, newProblem(r, http.StatusInternalServerError, "Internal server error", ""))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// tracing opens a server span per request, joining an upstream trace when
// the headers carry one.
func tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracer := opentracing.GlobalTracer()
			parent, _ := tracer.Extract(
				opentracing.HTTPHeaders,
				opentracing.HTTPHeadersCarrier(r.Header),
			)

			span := tracer.StartSpan(
				r.Method+" "+r.URL.Path,
				ext.RPCServerOption(parent),
			)
			defer span.Finish()

			ext.HTTPMethod.Set(span, r.Method)
			ext.HTTPUrl.Set(span, r.URL.String())
			span.SetTag("service", serviceName)

			next.ServeHTTP(w, r.WithContext(opentracing.ContextWithSpan(r.Context(), span)))
		})
	}
}

// rateLimit applies a per-client-IP token bucket. Buckets are created on
// first sight and never expire; fine for the expected client population.
func rateLimit(capacity int, refillRate float64) func(http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		buckets = make(map[string]*middleware.TokenBucket)
	)

	bucketFor := func(ip string) *middleware.TokenBucket {
		mu.Lock()
		defer mu.Unlock()
		b, ok := buckets[ip]
		if !ok {
			b = middleware.NewTokenBucket(capacity, refillRate)
			buckets[ip] = b
		}
		return b
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			if !bucketFor(ip).Allow() {
				writeProblem(w, newProblem(r, http.StatusTooManyRequests, "Too many requests", ""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// circuitBreak sheds load once the breaker trips. Responses of 500 and up
// count as failures.
func circuitBreak(cb *middleware.CircuitBreaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := cb.Allow(); err != nil {
				writeProblem(w, newProblem(r, http.StatusServiceUnavailable, "Service unavailable", ""))
				return
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if ww.Status() >= http.StatusInternalServerError {
				cb.Failure()
			} else {
				cb.Success()
			}
		})
	}
}
