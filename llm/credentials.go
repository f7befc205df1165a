// Credential boundary for providers that fetch a bearer token per call.
//
// Token acquisition and refresh live outside this package; providers
// only ask for "a valid credential, possibly refreshed, possibly shared"
// and fail fast with a user-legible error when none exists.

package llm

import (
	"context"
	"os"
)

// CredentialSource yields a valid bearer credential for one request.
// Implementations may cache or refresh concurrently across calls; that
// is invisible here.
type CredentialSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticCredential is a fixed API key.
type StaticCredential string

// AccessToken implements CredentialSource.
func (c StaticCredential) AccessToken(context.Context) (string, error) {
	if c == "" {
		return "", ErrNotSignedIn
	}
	return string(c), nil
}

// EnvCredential reads the key from an environment variable on every
// call, so an externally rotated key is picked up without restart.
type EnvCredential struct {
	Var string
}

// AccessToken implements CredentialSource.
func (c EnvCredential) AccessToken(context.Context) (string, error) {
	key := os.Getenv(c.Var)
	if key == "" {
		return "", ErrNotSignedIn
	}
	return key, nil
}
