package adapter

import "context"

// IdentityVerifier maps a bearer credential to a verified principal id, or
// rejects it. Credential issuance lives outside this core.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (principal string, err error)
}
