package http

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/semaphore"
)

// Concurrency lets at most n requests run their handlers at once. Others wait
// for a slot and give up with 503 when the server shuts down first.
func Concurrency(n int) fiber.Handler {
	if n < 1 {
		n = 1
	}
	sem := semaphore.NewWeighted(int64(n))
	return func(c *fiber.Ctx) error {
		if err := sem.Acquire(c.Context(), 1); err != nil {
			return fiber.ErrServiceUnavailable
		}
		defer sem.Release(1)
		return c.Next()
	}
}
