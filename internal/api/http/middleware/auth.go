package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/rodrigoprogmaster-prog/clinica/internal/service/auth"
	pasetotoken "github.com/rodrigoprogmaster-prog/clinica/pkg/paseto"
	"github.com/rodrigoprogmaster-prog/clinica/pkg/reqctx"
)

// AuthRequired validates a Bearer PASETO access token and checks that its
// session is still live.
// On success, stores *pasetotoken.Claims in c.Locals(pasetotoken.CtxKeyClaims)
// and in the request context.
func AuthRequired(mgr *pasetotoken.Manager, sessions auth.Service) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(strings.TrimSpace(parts[1]), pasetotoken.TokenTypeAccess)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		if _, err := sessions.Session(c.Context(), claims.GetSessionID()); err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}
