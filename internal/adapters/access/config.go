// Package access loads the per-path access configuration of the file server
// and evaluates permissions against it.
package access

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/kronenthaler/simple-http-file-server/internal/core/domain"
	"github.com/kronenthaler/simple-http-file-server/internal/core/ports"
)

// File is the on-disk access configuration. JSON files decode as YAML.
type File struct {
	Paths []PathEntry `yaml:"paths"`
	Users []UserEntry `yaml:"users"`
}

// PathEntry grants perms (any of "r", "w", "l") on path to user.
type PathEntry struct {
	Path  string `yaml:"path"`
	User  string `yaml:"user"`
	Perms string `yaml:"perms"`
}

// UserEntry declares a user. Psw is plain text or a bcrypt hash.
type UserEntry struct {
	User string `yaml:"user"`
	Psw  string `yaml:"psw"`
}

type node struct {
	perms    map[string]string
	children map[string]*node
}

func newNode() *node {
	return &node{perms: map[string]string{}, children: map[string]*node{}}
}

// Config is a path tree of permissions plus the user table.
// It is immutable once built and safe for concurrent use.
type Config struct {
	root  *node
	users map[string]string
}

var _ ports.Authorizer = (*Config)(nil)

// NewConfig returns an empty configuration, which allows everything.
func NewConfig() *Config {
	return &Config{root: newNode(), users: map[string]string{}}
}

// Load reads an access configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read access config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("access config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse builds a configuration from JSON or YAML.
func Parse(data []byte) (*Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromFile(f)
}

// FromFile validates f and builds the path tree.
func FromFile(f File) (*Config, error) {
	cfg := NewConfig()
	var errs []error
	for i, p := range f.Paths {
		if p.User == "" {
			errs = append(errs, fmt.Errorf("paths[%d]: user is required", i))
			continue
		}
		if bad := strings.Trim(p.Perms, "rwl"); bad != "" {
			errs = append(errs, fmt.Errorf("paths[%d]: unknown permissions %q", i, bad))
			continue
		}
		cfg.AddPath(p.Path, p.User, p.Perms)
	}
	for i, u := range f.Users {
		if u.User == "" || u.User == domain.AnyUser {
			errs = append(errs, fmt.Errorf("users[%d]: invalid user name %q", i, u.User))
			continue
		}
		cfg.users[u.User] = u.Psw
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitPath(p string) []string {
	var items []string
	for _, s := range strings.Split(p, "/") {
		if s == "" || s == "." || s == ".." {
			continue
		}
		items = append(items, s)
	}
	return items
}

// AddPath sets the permissions of user on path, replacing earlier ones.
func (c *Config) AddPath(path, user, perms string) {
	n := c.root
	for _, item := range splitPath(path) {
		child, ok := n.children[item]
		if !ok {
			child = newNode()
			n.children[item] = child
		}
		n = child
	}
	n.perms[user] = perms
}

// check returns the decision of one node: nil when the node says nothing
// about user.
func (n *node) check(user string, perm domain.Permission) *bool {
	perms, ok := n.perms[user]
	if !ok {
		perms, ok = n.perms[domain.AnyUser]
	}
	if !ok {
		return nil
	}
	allowed := strings.ContainsRune(perms, rune(perm))
	return &allowed
}

func (c *Config) passwordMatches(stored, given string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// Allowed walks path from the root. The deepest node on the path that has an
// entry for the user (or for "*") decides; with no such node the answer is yes.
// Users missing from the user table are treated as "*".
func (c *Config) Allowed(path string, perm domain.Permission, creds domain.Credentials) bool {
	user := creds.User
	if stored, ok := c.users[user]; !ok {
		user = domain.AnyUser
	} else if !c.passwordMatches(stored, creds.Password) {
		return false
	}

	n := c.root
	result := true
	if r := n.check(user, perm); r != nil {
		result = *r
	}
	for _, item := range splitPath(path) {
		child, ok := n.children[item]
		if !ok {
			break
		}
		n = child
		if r := n.check(user, perm); r != nil {
			result = *r
		}
	}
	return result
}
