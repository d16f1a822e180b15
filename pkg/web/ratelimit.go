package web

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// RateLimit enforces a fixed-window per-principal request quota backed by
// Redis, so the limit holds across API instances. When Redis is unavailable
// the request is allowed; throttling is protection, not a dependency.
func RateLimit(client *redis.Client, limit int, logger *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		key := fmt.Sprintf("ratelimit:%s:%s:%d",
			rateLimitSubject(c), c.Route().Path, time.Now().Unix()/int64(rateLimitWindow.Seconds()))

		count, err := client.Incr(c.Context(), key).Result()
		if err != nil {
			logger.WarnContext(c.Context(), "Rate limit check failed, allowing request", "error", err)

			return c.Next()
		}

		if count == 1 {
			client.Expire(c.Context(), key, rateLimitWindow)
		}

		if count > int64(limit) {
			return tooManyRequests(c, "Rate limit exceeded, try again later")
		}

		return c.Next()
	}
}

// rateLimitSubject buckets by principal when authenticated, by client IP
// otherwise.
func rateLimitSubject(c fiber.Ctx) string {
	if id := principalID(c); id != "" {
		return id
	}

	return c.IP()
}
