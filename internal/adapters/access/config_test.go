package access

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
)

const sampleConfig = `{
  "paths": [
    {"path": "", "user": "*", "perms": "l"},
    {"path": "public", "user": "*", "perms": "rl"},
    {"path": "private", "user": "*", "perms": ""},
    {"path": "private", "user": "alice", "perms": "rwl"},
    {"path": "private/ro", "user": "alice", "perms": "r"}
  ],
  "users": [
    {"user": "alice", "psw": "secret"}
  ]
}`

func TestAllowed(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	anon := domain.Anonymous()
	alice := domain.Credentials{User: "alice", Password: "secret"}
	wrong := domain.Credentials{User: "alice", Password: "nope"}
	stranger := domain.Credentials{User: "bob", Password: "whatever"}

	tests := []struct {
		name  string
		path  string
		perm  domain.Permission
		creds domain.Credentials
		want  bool
	}{
		{"anonymous list root", "", domain.PermList, anon, true},
		{"anonymous read root file", "top.txt", domain.PermRead, anon, false},
		{"anonymous read public", "public/a.txt", domain.PermRead, anon, true},
		{"anonymous write public", "public/a.txt", domain.PermWrite, anon, false},
		{"anonymous read private", "private/a.txt", domain.PermRead, anon, false},
		{"alice write private", "private/a.txt", domain.PermWrite, alice, true},
		{"alice write read-only subtree", "private/ro/a.txt", domain.PermWrite, alice, false},
		{"alice read read-only subtree", "private/ro/a.txt", domain.PermRead, alice, true},
		{"alice falls back to star", "public/a.txt", domain.PermRead, alice, true},
		{"wrong password", "public/a.txt", domain.PermRead, wrong, false},
		{"unknown user is anonymous", "public/a.txt", domain.PermRead, stranger, true},
		{"unknown user cannot enter private", "private/a.txt", domain.PermRead, stranger, false},
		{"dot segments ignored", "./public/../public/a.txt", domain.PermRead, anon, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cfg.Allowed(tc.path, tc.perm, tc.creds); got != tc.want {
				t.Fatalf("Allowed(%q, %s, %s) = %v, want %v", tc.path, tc.perm, tc.creds.User, got, tc.want)
			}
		})
	}
}

func TestEmptyConfigAllowsEverything(t *testing.T) {
	cfg := NewConfig()
	if !cfg.Allowed("any/where", domain.PermWrite, domain.Anonymous()) {
		t.Fatal("empty config should allow")
	}
}

func TestBcryptPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := FromFile(File{
		Paths: []PathEntry{{Path: "", User: "*", Perms: ""}, {Path: "", User: "carol", Perms: "r"}},
		Users: []UserEntry{{User: "carol", Psw: string(hash)}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !cfg.Allowed("f", domain.PermRead, domain.Credentials{User: "carol", Password: "s3cret"}) {
		t.Fatal("bcrypt password rejected")
	}
	if cfg.Allowed("f", domain.PermRead, domain.Credentials{User: "carol", Password: "other"}) {
		t.Fatal("wrong password accepted")
	}
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown perm", `{"paths":[{"path":"a","user":"*","perms":"rx"}],"users":[]}`},
		{"missing user", `{"paths":[{"path":"a","perms":"r"}],"users":[]}`},
		{"star as user", `{"paths":[],"users":[{"user":"*","psw":"x"}]}`},
		{"not a document", `[1, 2`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.yaml")
	data := "paths:\n  - path: caches\n    user: \"*\"\n    perms: rw\nusers: []\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Allowed("caches/x", domain.PermWrite, domain.Anonymous()) {
		t.Fatal("write on caches should be allowed")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("expected error")
	}
}
