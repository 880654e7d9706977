package types

import "fmt"

// Identity is the handle a key pair is stored under: an encoded address or an alias.
type Identity string

// NewAlias returns an identity that is not derived from an address.
func NewAlias(alias string) Identity {
	return Identity(alias)
}

// Value returns the identity as a plain string.
func (id Identity) Value() string { return string(id) }

// Authentication unlocks the key stored under Identity. It is never persisted.
type Authentication struct {
	Identity Identity
	Password string
}

// NewAuthentication returns an Authentication for the given identity and password.
func NewAuthentication(identity Identity, password string) Authentication {
	return Authentication{Identity: identity, Password: password}
}

// String hides the password so an Authentication is safe to log.
func (a Authentication) String() string {
	return fmt.Sprintf("Authentication{identity=%s, password=[CREDENTIAL]}", a.Identity)
}
