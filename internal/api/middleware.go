package api

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"task-service/internal/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const claimsKey = "userClaims"

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status_code"},
	)
)

type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RequireAuth admits a request carrying a valid bearer token. When roles is non-empty the
// token's role must be one of them. revocations may be nil, in which case logged-out tokens
// stay valid until they expire.
func RequireAuth(verifier TokenVerifier, revocations RevocationChecker, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fail(c, fiber.StatusUnauthorized, "Token tidak ada")
		}

		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || scheme != "Bearer" || tokenString == "" {
			return fail(c, fiber.StatusUnauthorized, "Format token tidak valid")
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			if jwt.IsExpired(err) {
				return fail(c, fiber.StatusUnauthorized, "Token sudah kedaluwarsa")
			}
			return fail(c, fiber.StatusUnauthorized, "Token tidak valid")
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.UserContext(), claims.ID)
			if err != nil {
				return internalError(c, err, "Gagal memeriksa token")
			}
			if revoked {
				return fail(c, fiber.StatusUnauthorized, "Token tidak valid")
			}
		}

		if len(roles) > 0 && !hasRole(roles, claims.Role) {
			return fail(c, fiber.StatusForbidden, "Akses ditolak")
		}

		c.Locals(claimsKey, claims)

		return c.Next()
	}
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// ClaimsFromCtx returns the claims RequireAuth stored for this request.
func ClaimsFromCtx(c *fiber.Ctx) (*jwt.Claims, error) {
	claims, ok := c.Locals(claimsKey).(*jwt.Claims)
	if !ok || claims == nil {
		return nil, errors.New("claims not found in context")
	}
	return claims, nil
}

// QueryTimeout bounds the request context handed to the store.
func QueryTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()

		if err != nil {
			var e *fiber.Error

			if errors.As(err, &e) {
				statusCode = e.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		// route pattern, so task ids don't explode label cardinality
		path := c.Route().Path
		statusStr := strconv.Itoa(statusCode)

		httpRequestTotal.WithLabelValues(c.Method(), path, statusStr).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path, statusStr).Observe(duration)

		return err
	}
}
