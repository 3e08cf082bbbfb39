package http

import (
	"io"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// HeaderLogger writes the request headers of every request to w, one
// "Name: value" line each, followed by a blank line.
func HeaderLogger(w io.Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		headers := c.GetReqHeaders()
		names := make([]string, 0, len(headers))
		for name := range headers {
			names = append(names, name)
		}
		sort.Strings(names)

		var b strings.Builder
		for _, name := range names {
			for _, v := range headers[name] {
				b.WriteString(name)
				b.WriteString(": ")
				b.WriteString(v)
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
		_, _ = io.WriteString(w, b.String())
		return c.Next()
	}
}
