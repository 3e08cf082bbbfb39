package http

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

// parseBasicAuth reads the caller from an Authorization header. A missing
// header is the anonymous user; anything other than well-formed Basic
// credentials is rejected.
func parseBasicAuth(header string) (domain.Credentials, bool) {
	if header == "" {
		return domain.Anonymous(), true
	}
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return domain.Credentials{}, false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return domain.Credentials{}, false
	}
	user, psw, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return domain.Credentials{}, false
	}
	return domain.Credentials{User: user, Password: psw}, true
}

// requiredPermission maps a request to the permission it needs. Reading a
// directory needs "l"; modifying anything needs "w".
func requiredPermission(method string, isDir bool) (domain.Permission, bool) {
	switch method {
	case fiber.MethodGet, fiber.MethodHead:
		if isDir {
			return domain.PermList, true
		}
		return domain.PermRead, true
	case fiber.MethodPut, fiber.MethodDelete:
		return domain.PermWrite, true
	}
	return 0, false
}

// AccessControl rejects requests the authorizer does not allow with a Basic
// authentication challenge.
func AccessControl(auth ports.Authorizer, store ports.Storage, realm string) fiber.Handler {
	challenge := `Basic realm="` + realm + `"`
	unauthorized := func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderWWWAuthenticate, challenge)
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTML)
		return c.Status(fiber.StatusUnauthorized).SendString("Not authenticated\n")
	}

	return func(c *fiber.Ctx) error {
		_, key, err := requestPath(c)
		if err != nil {
			return unauthorized(c)
		}

		isDir := false
		if info, err := store.Stat(c.Context(), key); err == nil {
			isDir = info.IsDir
		}
		perm, ok := requiredPermission(c.Method(), isDir)
		if !ok {
			return c.Next()
		}

		creds, ok := parseBasicAuth(c.Get(fiber.HeaderAuthorization))
		if !ok || !auth.Allowed(key, perm, creds) {
			return unauthorized(c)
		}
		return c.Next()
	}
}
