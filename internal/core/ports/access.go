package ports

import "github.com/kronenthaler/simple-http-file-server/internal/core/domain"

// Authorizer decides whether a caller holds a permission on a storage path.
type Authorizer interface {
	Allowed(path string, perm domain.Permission, creds domain.Credentials) bool
}
