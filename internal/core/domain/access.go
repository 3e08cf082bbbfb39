package domain

// Permission is a single access right on a storage path.
type Permission byte

const (
	PermRead  Permission = 'r'
	PermWrite Permission = 'w'
	PermList  Permission = 'l'
)

// AnyUser matches anonymous requests and users missing from the user table.
const AnyUser = "*"

func (p Permission) String() string {
	return string(p)
}

// Credentials identify the caller of a storage request.
type Credentials struct {
	User     string
	Password string
}

// Anonymous returns the credentials of a request without an Authorization header.
func Anonymous() Credentials {
	return Credentials{User: AnyUser}
}
