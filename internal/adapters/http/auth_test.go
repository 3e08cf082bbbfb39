package http

import (
	"encoding/base64"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/kronenthaler/simple-http-file-server/internal/adapters/access"
	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

func basic(user, psw string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+psw))
}

func TestParseBasicAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   domain.Credentials
		ok     bool
	}{
		{"absent", "", domain.Anonymous(), true},
		{"valid", basic("alice", "secret"), domain.Credentials{User: "alice", Password: "secret"}, true},
		{"colon in password", basic("alice", "a:b"), domain.Credentials{User: "alice", Password: "a:b"}, true},
		{"bearer", "Bearer token", domain.Credentials{}, false},
		{"bad base64", "Basic !!!", domain.Credentials{}, false},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("alice")), domain.Credentials{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseBasicAuth(tc.header)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("parseBasicAuth(%q) = %+v, %v; want %+v, %v", tc.header, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestRequiredPermission(t *testing.T) {
	tests := []struct {
		method string
		isDir  bool
		want   domain.Permission
		ok     bool
	}{
		{fiber.MethodGet, false, domain.PermRead, true},
		{fiber.MethodHead, false, domain.PermRead, true},
		{fiber.MethodGet, true, domain.PermList, true},
		{fiber.MethodPut, false, domain.PermWrite, true},
		{fiber.MethodPut, true, domain.PermWrite, true},
		{fiber.MethodDelete, true, domain.PermWrite, true},
		{fiber.MethodPost, false, 0, false},
	}
	for _, tc := range tests {
		got, ok := requiredPermission(tc.method, tc.isDir)
		if got != tc.want || ok != tc.ok {
			t.Errorf("requiredPermission(%s, %v) = %v, %v", tc.method, tc.isDir, got, ok)
		}
	}
}

func TestAccessControl(t *testing.T) {
	cfg, err := access.Parse([]byte(`{
		"paths": [
			{"path": "", "user": "*", "perms": "rl"},
			{"path": "caches", "user": "writer", "perms": "rwl"}
		],
		"users": [{"user": "writer", "psw": "pw"}]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	app, _ := newTestApp(t, Options{Authorizer: cfg})

	resp, body := do(t, app, fiber.MethodPut, "/caches/x", "data")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("anonymous PUT status = %d, want 401", resp.StatusCode)
	}
	if got := resp.Header.Get(fiber.HeaderWWWAuthenticate); got != `Basic realm="Test"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}
	if body != "Not authenticated\n" {
		t.Errorf("body = %q", body)
	}

	resp, _ = do(t, app, fiber.MethodPut, "/caches/x", "data", fiber.HeaderAuthorization, basic("writer", "wrong"))
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("wrong password PUT status = %d, want 401", resp.StatusCode)
	}

	resp, _ = do(t, app, fiber.MethodPut, "/caches/x", "data", fiber.HeaderAuthorization, basic("writer", "pw"))
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("authorized PUT status = %d", resp.StatusCode)
	}

	resp, body = do(t, app, fiber.MethodGet, "/caches/x", "")
	if resp.StatusCode != fiber.StatusOK || body != "data" {
		t.Fatalf("anonymous GET = %d %q", resp.StatusCode, body)
	}

	resp, _ = do(t, app, fiber.MethodDelete, "/caches/x", "")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("anonymous DELETE status = %d, want 401", resp.StatusCode)
	}

	resp, _ = do(t, app, fiber.MethodGet, "/caches/", "", fiber.HeaderAuthorization, "Bearer x")
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("non-basic auth status = %d, want 401", resp.StatusCode)
	}
}
