package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestTimeout pone un plazo al contexto de usuario de la petición. Los servicios reciben
// c.UserContext(), así que al vencer el plazo la transacción en curso se revierte y suelta sus locks.
func RequestTimeout(d time.Duration) fiber.Handler {
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
