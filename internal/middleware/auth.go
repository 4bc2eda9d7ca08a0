package middleware

import (
	"encoding/json"
	"time"

	"flowconnect-backend/internal/identity"
	"flowconnect-backend/internal/pkg/apperr"
	"flowconnect-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const authLocal = "auth"
const subjectHeader = "X-Auth-Subject"
const authCacheTTL = 5 * time.Minute

// Auth resolves the external auth subject into a platform identity and stores
// it in Locals. Resolution results are cached in Redis so the subscription DB
// is not hit on every request. cache may be nil.
func Auth(resolver *identity.Resolver, cache *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := c.Get(subjectHeader)
		if subject == "" {
			return response.Unauthorized(c, "Unauthorized")
		}

		if cache != nil {
			if cached, err := cache.Get(c.Context(), authCacheKey(subject)).Bytes(); err == nil {
				var info identity.AuthInfo
				if json.Unmarshal(cached, &info) == nil {
					c.Locals(authLocal, &info)
					return c.Next()
				}
			}
		}

		info, err := resolver.Resolve(c.Context(), subject)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound || apperr.KindOf(err) == apperr.KindAuthorization {
				return response.Unauthorized(c, "Unauthorized")
			}
			return err
		}

		if cache != nil {
			if payload, merr := json.Marshal(info); merr == nil {
				if err := cache.Set(c.Context(), authCacheKey(subject), payload, authCacheTTL).Err(); err != nil {
					log.Warn().Err(err).Msg("failed to cache auth identity")
				}
			}
		}

		c.Locals(authLocal, info)
		return c.Next()
	}
}

func authCacheKey(subject string) string {
	return "auth:subject:" + subject
}

// GetAuth returns the resolved identity from Locals, nil when absent.
func GetAuth(c *fiber.Ctx) *identity.AuthInfo {
	if info, ok := c.Locals(authLocal).(*identity.AuthInfo); ok {
		return info
	}
	return nil
}
