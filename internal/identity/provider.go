// Package identity defines the external identity provider port. Credential
// issuance lives entirely outside this system; the API only verifies bearer
// tokens and manages provider accounts during admin-driven deletion.
package identity

import "context"

// Verified is the validated identity derived from a bearer credential. It is
// attached to the request context and never persisted.
type Verified struct {
	Email  string
	UID    string
	Claims map[string]interface{}
}

// Account describes a provider-side account.
type Account struct {
	UID   string
	Email string
}

// Provider abstracts the external identity provider.
type Provider interface {
	// VerifyToken validates a raw bearer token and returns the verified
	// identity. Invalid, expired, or malformed tokens yield an
	// unauthorized error; provider outages yield an external service error.
	VerifyToken(ctx context.Context, token string) (*Verified, error)

	// AccountByEmail resolves the provider account for an email address.
	AccountByEmail(ctx context.Context, email string) (*Account, error)

	// DeleteAccount removes the provider account by its provider UID.
	DeleteAccount(ctx context.Context, uid string) error
}
