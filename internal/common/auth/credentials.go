package auth

import "fmt"

// CredentialStore holds the single configured principal. The password is
// kept only as a salted iterated hash.
type CredentialStore struct {
	username string
	salt     string
	hash     string
	roles    []string
}

// NewCredentialStore salts and hashes password up front.
func NewCredentialStore(username, password string, roles []string) (*CredentialStore, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password must not be empty")
	}
	salt, err := GenerateSaltHex(16)
	if err != nil {
		return nil, err
	}
	return &CredentialStore{
		username: username,
		salt:     salt,
		hash:     HashPassword(password, salt),
		roles:    roles,
	}, nil
}

// Authenticate reports whether the pair matches the stored principal.
func (s *CredentialStore) Authenticate(username, password string) bool {
	if username != s.username {
		return false
	}
	return VerifyPassword(password, s.salt, s.hash)
}

// Roles returns the roles granted to the principal.
func (s *CredentialStore) Roles() []string {
	out := make([]string, len(s.roles))
	copy(out, s.roles)
	return out
}
